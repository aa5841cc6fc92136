package classifier

import (
	"math"
	"regexp"
	"sort"

	"cyberlaw-backend/textnorm"
)

// tokenPattern matches runs of two or more word runes
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Tokenize lowercases text and splits it into word tokens of length two or more
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(textnorm.Lower(text), -1)
}

// SparseVector is a feature vector with indices in ascending order
type SparseVector struct {
	Indices []int
	Values  []float64
}

// Vectorizer maps text to L2-normalized TF-IDF vectors
type Vectorizer struct {
	Vocabulary map[string]int
	IDF        []float64
}

// FitVectorizer builds the vocabulary and smoothed idf weights of a corpus.
// Terms are indexed in lexicographic order.
func FitVectorizer(docs []string) *Vectorizer {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, tok := range Tokenize(doc) {
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	n := float64(len(docs))
	v := &Vectorizer{
		Vocabulary: make(map[string]int, len(terms)),
		IDF:        make([]float64, len(terms)),
	}
	for i, term := range terms {
		v.Vocabulary[term] = i
		v.IDF[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return v
}

// Dim returns the number of features
func (v *Vectorizer) Dim() int {
	return len(v.IDF)
}

// Transform converts text into a TF-IDF vector. Tokens outside the
// vocabulary are ignored; text with no known token yields an empty vector.
func (v *Vectorizer) Transform(text string) SparseVector {
	counts := make(map[int]float64)
	for _, tok := range Tokenize(text) {
		if idx, ok := v.Vocabulary[tok]; ok {
			counts[idx]++
		}
	}

	vec := SparseVector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for idx := range counts {
		vec.Indices = append(vec.Indices, idx)
	}
	sort.Ints(vec.Indices)

	var sumSquares float64
	for _, idx := range vec.Indices {
		w := counts[idx] * v.IDF[idx]
		vec.Values = append(vec.Values, w)
		sumSquares += w * w
	}

	if norm := math.Sqrt(sumSquares); norm > 0 {
		for i := range vec.Values {
			vec.Values[i] /= norm
		}
	}
	return vec
}
