package models

// PredictionResult represents the outcome of classifying one query.
// JSON keys follow the public /predict contract.
type PredictionResult struct {
	Section    string `json:"Section"`
	Offense    string `json:"Offense"`
	Punishment string `json:"Punishment"`
	CaseType   string `json:"Case Type"`
	Procedure  string `json:"Procedure"`
}

// ReportField is a single labelled line of a rendered report
type ReportField struct {
	Label string
	Value string
}

// Fields returns the result in report order: Section, Offense, Punishment,
// Case Type, Procedure.
func (r *PredictionResult) Fields() []ReportField {
	return []ReportField{
		{Label: "Section", Value: r.Section},
		{Label: "Offense", Value: r.Offense},
		{Label: "Punishment", Value: r.Punishment},
		{Label: "Case Type", Value: r.CaseType},
		{Label: "Procedure", Value: r.Procedure},
	}
}

// NewPredictionResult combines a law entry with its enrichment text
func NewPredictionResult(entry LawEntry, procedure string) *PredictionResult {
	return &PredictionResult{
		Section:    entry.Section,
		Offense:    entry.Offense,
		Punishment: entry.Punishment,
		CaseType:   entry.CaseType,
		Procedure:  procedure,
	}
}
