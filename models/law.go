package models

// LawEntry represents one statutory section of the cyber law reference table
type LawEntry struct {
	Section    string `json:"section"`
	Offense    string `json:"offense"`
	Punishment string `json:"punishment"`
	CaseType   string `json:"case_type"`
}

// TrainingExample pairs a normalized text with the section it should map to.
// Built from the reference table for model training only.
type TrainingExample struct {
	NormalizedText string
	Label          string
}
