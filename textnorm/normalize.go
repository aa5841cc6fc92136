// Package textnorm cleans raw query text before classification.
package textnorm

import (
	"regexp"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// nonWord matches a single rune that is not a letter, digit or underscore.
var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_]`)

// Normalize lowercases text and replaces every non-word rune with one space.
// Consecutive non-word runes produce consecutive spaces; whitespace is never
// collapsed.
func Normalize(text string) string {
	return nonWord.ReplaceAllString(Lower(text), " ")
}

// Lower lowercases text using Unicode casing rules
func Lower(text string) string {
	// cases.Caser is stateful, so a fresh one is built per call.
	return cases.Lower(language.Und).String(text)
}
