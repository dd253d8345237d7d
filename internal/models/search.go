// internal/models/search.go
package models

// Outcome is the terminal state of one hybrid search.
type Outcome string

const (
	OutcomeDone             Outcome = "done"
	OutcomeRejected         Outcome = "rejected"
	OutcomeGenerationFailed Outcome = "generation_failed"
	OutcomeExecutionFailed  Outcome = "execution_failed"
)

// Stage is a non-terminal step of the search pipeline.
type Stage string

const (
	StageStart     Stage = "start"
	StageGenerated Stage = "generated"
	StageValidated Stage = "validated"
	StageExecuted  Stage = "executed"
)

// ResultSet is what the executor fetched: column names in select order and
// every row, each row ordered like Columns.
type ResultSet struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// RowCount returns the number of fetched rows.
func (r *ResultSet) RowCount() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// SearchResult is returned for a search that reached OutcomeDone.
type SearchResult struct {
	SQL     string   `json:"sql"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
	Outcome Outcome  `json:"outcome"`
}

// RowCount returns the number of result rows.
func (r *SearchResult) RowCount() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}
