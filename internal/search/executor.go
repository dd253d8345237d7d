package search

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"nl-sql-search/internal/common/logger"
	"nl-sql-search/internal/models"
)

// Opener returns a handle backed by a single fresh connection. The
// executor closes it before Execute returns.
type Opener func(ctx context.Context) (*sql.DB, error)

// Executor runs approved statements, one connection per call.
type Executor struct {
	open   Opener
	logger logger.Logger
}

func NewExecutor(open Opener, log logger.Logger) *Executor {
	return &Executor{
		open:   open,
		logger: log.With(map[string]interface{}{"component": "executor"}),
	}
}

// Execute runs statement and returns every row. Errors are the driver's
// own, unclassified; the caller surfaces their text as is.
func (e *Executor) Execute(ctx context.Context, statement string) (*models.ResultSet, error) {
	start := time.Now()

	db, err := e.open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			e.logger.Warn("failed to close connection", map[string]interface{}{"error": cerr.Error()})
		}
	}()

	rows, err := db.QueryContext(ctx, statement)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result, err := scanAll(rows)
	if err != nil {
		return nil, err
	}

	e.logger.Info("query executed", map[string]interface{}{
		"rowCount":        result.RowCount(),
		"columnCount":     len(result.Columns),
		"executionTimeMs": time.Since(start).Milliseconds(),
	})

	return result, nil
}

func scanAll(rows *sql.Rows) (*models.ResultSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	result := &models.ResultSet{
		Columns: cols,
		Rows:    make([][]any, 0),
	}

	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
