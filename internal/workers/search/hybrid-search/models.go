// internal/workers/search/hybrid-search/models.go
package hybridsearch

import "nl-sql-search/internal/models"

type Input struct {
	Question string `json:"question"`
}

type Output struct {
	SQL      string         `json:"sql"`
	Columns  []string       `json:"columns"`
	Rows     [][]any        `json:"rows"`
	RowCount int            `json:"rowCount"`
	Outcome  models.Outcome `json:"outcome"`
}
