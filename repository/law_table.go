package repository

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cyberlaw-backend/models"
	"cyberlaw-backend/textnorm"
)

var (
	// ErrDataLoad is returned when the reference source is missing or malformed
	ErrDataLoad = errors.New("failed to load law reference data")
	// ErrSectionNotFound is returned when a section is absent from the table
	ErrSectionNotFound = errors.New("law section not found")
)

// Column headers required in the reference CSV
const (
	ColumnSection    = "Section"
	ColumnOffense    = "Offense"
	ColumnPunishment = "Punishment"
	ColumnCaseType   = "Case Type"
)

// LawTable is the read-only reference table of law sections.
// It is built once and is safe for concurrent reads.
type LawTable struct {
	entries []models.LawEntry
	index   map[string]int
}

// NewLawTable builds a table from rows in source order. The first row wins
// when a section appears more than once.
func NewLawTable(entries []models.LawEntry) *LawTable {
	t := &LawTable{
		entries: make([]models.LawEntry, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	copy(t.entries, entries)
	for i, e := range t.entries {
		if _, exists := t.index[e.Section]; !exists {
			t.index[e.Section] = i
		}
	}
	return t
}

// LoadCSV reads the reference table from a CSV file
func LoadCSV(path string) (*LawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: dataset file '%s': %v", ErrDataLoad, path, err)
	}
	defer f.Close()

	return LoadCSVReader(f)
}

// LoadCSVReader reads the reference table from CSV data with a header row
func LoadCSVReader(r io.Reader) (*LawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read header: %v", ErrDataLoad, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		cols[name] = i
	}

	required := []string{ColumnSection, ColumnOffense, ColumnPunishment, ColumnCaseType}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: missing required column %q", ErrDataLoad, name)
		}
	}

	var entries []models.LawEntry
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrDataLoad, line, err)
		}

		field := func(name string) string {
			i := cols[name]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		entry := models.LawEntry{
			Section:    field(ColumnSection),
			Offense:    field(ColumnOffense),
			Punishment: field(ColumnPunishment),
			CaseType:   field(ColumnCaseType),
		}
		if entry.Section == "" {
			return nil, fmt.Errorf("%w: line %d: empty section", ErrDataLoad, line)
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no law sections in dataset", ErrDataLoad)
	}

	return NewLawTable(entries), nil
}

// Lookup returns the entry for a section
func (t *LawTable) Lookup(section string) (models.LawEntry, error) {
	i, ok := t.index[section]
	if !ok {
		return models.LawEntry{}, fmt.Errorf("%w: %s", ErrSectionNotFound, section)
	}
	return t.entries[i], nil
}

// TrainingExamples returns one example per row, with text built from the
// section and offense.
func (t *LawTable) TrainingExamples() []models.TrainingExample {
	examples := make([]models.TrainingExample, 0, len(t.entries))
	for _, e := range t.entries {
		examples = append(examples, models.TrainingExample{
			NormalizedText: textnorm.Normalize(e.Section + " - " + e.Offense),
			Label:          e.Section,
		})
	}
	return examples
}

// Entries returns a copy of all rows in source order
func (t *LawTable) Entries() []models.LawEntry {
	out := make([]models.LawEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Sections returns the distinct sections in first-seen order
func (t *LawTable) Sections() []string {
	sections := make([]string, 0, len(t.index))
	for i, e := range t.entries {
		if t.index[e.Section] == i {
			sections = append(sections, e.Section)
		}
	}
	return sections
}

// Len returns the number of rows
func (t *LawTable) Len() int {
	return len(t.entries)
}
