package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "nl-sql-search/internal/common/errors"
	"nl-sql-search/internal/history"
	"nl-sql-search/internal/models"
	"nl-sql-search/internal/render"
)

// ==========================
// Test Helpers
// ==========================

type fakeSearcher struct {
	result *models.SearchResult
	err    error
	seen   []string
}

func (f *fakeSearcher) Search(ctx context.Context, question string) (*models.SearchResult, error) {
	f.seen = append(f.seen, question)
	return f.result, f.err
}

type fakeHistory struct {
	recorded []string
	entries  []history.Entry
	cleared  bool
	err      error
}

func (f *fakeHistory) RecordSearch(ctx context.Context, question string, result *models.SearchResult, searchErr error, elapsed time.Duration) {
	f.recorded = append(f.recorded, question)
}

func (f *fakeHistory) Recent(ctx context.Context, limit int) ([]history.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.entries) {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

func (f *fakeHistory) Clear(ctx context.Context) error {
	f.cleared = true
	return f.err
}

func departmentsResult() *models.SearchResult {
	return &models.SearchResult{
		SQL:     "SELECT * FROM departments;",
		Columns: []string{"id", "name"},
		Rows:    [][]any{{int64(1), "Engineering"}, {int64(2), "Sales"}},
		Outcome: models.OutcomeDone,
	}
}

func factoryFor(rt *Runtime) RuntimeFactory {
	return func(ctx context.Context, opts *GlobalOptions) (*Runtime, error) {
		return rt, nil
	}
}

func runCmd(t *testing.T, factory RuntimeFactory, args ...string) (string, string, error) {
	t.Helper()
	color.NoColor = true

	var out, errOut bytes.Buffer
	root := NewRootCmd(factory)
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// ==========================
// search
// ==========================

func TestSearchCommand_PrintsSQLAndTable(t *testing.T) {
	searcher := &fakeSearcher{result: departmentsResult()}
	hist := &fakeHistory{}

	out, _, err := runCmd(t, factoryFor(&Runtime{Searcher: searcher, History: hist}),
		"search", "List", "all", "departments")
	require.NoError(t, err)

	assert.Contains(t, out, "Generated SQL:\nSELECT * FROM departments;")
	assert.Contains(t, out, "✓ Found 2 results")
	assert.Contains(t, out, "Engineering")
	assert.Contains(t, out, "(2 rows)")
	assert.Equal(t, []string{"List all departments"}, searcher.seen)
	assert.Equal(t, []string{"List all departments"}, hist.recorded)
}

func TestSearchCommand_NoResults(t *testing.T) {
	searcher := &fakeSearcher{result: &models.SearchResult{SQL: "SELECT * FROM orders WHERE false", Columns: []string{"id"}, Rows: [][]any{}}}

	out, _, err := runCmd(t, factoryFor(&Runtime{Searcher: searcher}), "search", "nothing")
	require.NoError(t, err)
	assert.Contains(t, out, "! No results found for your query.")
	assert.NotContains(t, out, "(0 rows)")
}

func TestSearchCommand_WritesCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query_results.csv")
	searcher := &fakeSearcher{result: departmentsResult()}

	out, _, err := runCmd(t, factoryFor(&Runtime{Searcher: searcher}),
		"search", "departments", "--format", "csv", "--output", path, "--no-sql")
	require.NoError(t, err)

	assert.NotContains(t, out, "Generated SQL:")
	assert.Contains(t, out, "Results written to "+path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id,name\n1,Engineering\n2,Sales\n", string(raw))
}

func TestSearchCommand_Rejected(t *testing.T) {
	rejected := apperrors.NewSQLRejectedError("Forbidden SQL keyword detected: drop", nil)
	rejected.Metadata = map[string]interface{}{"sql": "DROP TABLE employees", "keyword": "drop"}
	hist := &fakeHistory{}

	out, errOut, err := runCmd(t, factoryFor(&Runtime{Searcher: &fakeSearcher{err: rejected}, History: hist}),
		"search", "remove everyone")
	require.Error(t, err)

	var reported reportedError
	assert.True(t, errors.As(err, &reported))
	assert.Empty(t, out)
	assert.Contains(t, errOut, "DROP TABLE employees")
	assert.Contains(t, errOut, "✗ Security Error: Forbidden SQL keyword detected: drop")
	assert.Len(t, hist.recorded, 1)
}

func TestSearchCommand_ExecutionErrorIsVerbatim(t *testing.T) {
	failed := apperrors.NewSQLExecutionFailedError(errors.New(`pq: column "salery" does not exist`))

	_, errOut, err := runCmd(t, factoryFor(&Runtime{Searcher: &fakeSearcher{err: failed}}), "search", "salaries")
	require.Error(t, err)
	assert.Contains(t, errOut, `✗ pq: column "salery" does not exist`)
}

func TestSearchCommand_BadFormat(t *testing.T) {
	searcher := &fakeSearcher{result: departmentsResult()}

	_, _, err := runCmd(t, factoryFor(&Runtime{Searcher: searcher}), "search", "q", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
	assert.Empty(t, searcher.seen)
}

func TestSearchCommand_FactoryError(t *testing.T) {
	factory := func(ctx context.Context, opts *GlobalOptions) (*Runtime, error) {
		return nil, errors.New("llm.api_key is required")
	}

	_, _, err := runCmd(t, factory, "search", "q")
	assert.EqualError(t, err, "llm.api_key is required")
}

func TestAnswer_BlankQuestion(t *testing.T) {
	color.NoColor = true
	searcher := &fakeSearcher{}
	var out, errOut bytes.Buffer

	err := answer(context.Background(), &Runtime{Searcher: searcher}, "   ", answerOptions{
		out: &out, errOut: &errOut, results: &out, format: render.FormatTable,
	})
	require.Error(t, err)
	assert.Contains(t, errOut.String(), "Please enter a question")
	assert.Empty(t, searcher.seen)
}

// ==========================
// validate / schema / examples
// ==========================

func TestValidateCommand(t *testing.T) {
	out, _, err := runCmd(t, nil, "validate", "SELECT name FROM employees")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Valid")

	out, _, err = runCmd(t, nil, "validate", "SELECT * FROM employees; DROP TABLE employees")
	require.Error(t, err)
	assert.Contains(t, out, "✗ Forbidden SQL keyword detected: drop")

	out, _, err = runCmd(t, nil, "validate", "--json", "SHOW TABLES")
	require.Error(t, err)
	assert.JSONEq(t, `{"valid":false,"reason":"Only SELECT queries are allowed"}`, out)
}

func TestSchemaCommand(t *testing.T) {
	out, _, err := runCmd(t, nil, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "Database Schema:")
	assert.Contains(t, out, "employees.department_id → departments.id")
}

func TestExamplesCommand(t *testing.T) {
	out, _, err := runCmd(t, nil, "examples")
	require.NoError(t, err)
	assert.Contains(t, out, "Employee Queries:")
	assert.Contains(t, out, "  - Who earns more than 70000?")
}

// ==========================
// history
// ==========================

func TestHistoryCommand(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		_, _, err := runCmd(t, factoryFor(&Runtime{Searcher: &fakeSearcher{}}), "history")
		assert.ErrorIs(t, err, errHistoryDisabled)
	})

	t.Run("lists entries", func(t *testing.T) {
		hist := &fakeHistory{entries: []history.Entry{
			{Question: "List departments", SQL: "SELECT * FROM departments", Outcome: models.OutcomeDone, RowCount: 5, CreatedAt: time.Now()},
			{Question: "drop it", Outcome: models.OutcomeRejected, Error: "Security Error: Forbidden SQL keyword detected: drop", CreatedAt: time.Now()},
		}}

		out, _, err := runCmd(t, factoryFor(&Runtime{Searcher: &fakeSearcher{}, History: hist}), "history", "-n", "5")
		require.NoError(t, err)
		assert.Contains(t, out, "List departments")
		assert.Contains(t, out, "Security Error")
		assert.Contains(t, out, "(2 rows)")
	})

	t.Run("empty", func(t *testing.T) {
		out, _, err := runCmd(t, factoryFor(&Runtime{Searcher: &fakeSearcher{}, History: &fakeHistory{}}), "history")
		require.NoError(t, err)
		assert.Contains(t, out, "No searches recorded yet.")
	})

	t.Run("clear", func(t *testing.T) {
		hist := &fakeHistory{}
		out, _, err := runCmd(t, factoryFor(&Runtime{Searcher: &fakeSearcher{}, History: hist}), "history", "--clear")
		require.NoError(t, err)
		assert.True(t, hist.cleared)
		assert.Contains(t, out, "History cleared")
	})
}

// ==========================
// REPL dot-commands
// ==========================

func newTestSession(rt *Runtime) (*replSession, *bytes.Buffer, *bytes.Buffer) {
	color.NoColor = true
	var out, errOut bytes.Buffer
	return &replSession{rt: rt, out: &out, errOut: &errOut, format: render.FormatTable}, &out, &errOut
}

func TestDotCommands(t *testing.T) {
	s, out, errOut := newTestSession(&Runtime{Searcher: &fakeSearcher{}})
	ctx := context.Background()

	assert.True(t, s.handleDotCommand(ctx, ".quit"))
	assert.True(t, s.handleDotCommand(ctx, ".EXIT"))

	assert.False(t, s.handleDotCommand(ctx, ".help"))
	assert.Contains(t, out.String(), ".format [name]")

	out.Reset()
	assert.False(t, s.handleDotCommand(ctx, ".format json"))
	assert.Equal(t, render.FormatJSON, s.format)
	assert.Contains(t, out.String(), "Output format set to json")

	assert.False(t, s.handleDotCommand(ctx, ".format xml"))
	assert.Equal(t, render.FormatJSON, s.format)
	assert.Contains(t, errOut.String(), "unknown output format")

	out.Reset()
	assert.False(t, s.handleDotCommand(ctx, ".schema"))
	assert.Contains(t, out.String(), "Database Schema:")

	errOut.Reset()
	assert.False(t, s.handleDotCommand(ctx, ".history"))
	assert.Contains(t, errOut.String(), "search history is not enabled")

	errOut.Reset()
	assert.False(t, s.handleDotCommand(ctx, ".tables"))
	assert.Contains(t, errOut.String(), "Unknown command: .tables")
}

func TestDotHistory_Limit(t *testing.T) {
	hist := &fakeHistory{entries: []history.Entry{
		{Question: "first", Outcome: models.OutcomeDone, CreatedAt: time.Now()},
		{Question: "second", Outcome: models.OutcomeDone, CreatedAt: time.Now()},
	}}
	s, out, errOut := newTestSession(&Runtime{Searcher: &fakeSearcher{}, History: hist})

	assert.False(t, s.handleDotCommand(context.Background(), ".history 1"))
	assert.Contains(t, out.String(), "first")
	assert.NotContains(t, out.String(), "second")

	assert.False(t, s.handleDotCommand(context.Background(), ".history zero"))
	assert.Contains(t, errOut.String(), "Usage: .history [n]")
}

func TestResolveHistoryFile(t *testing.T) {
	assert.Equal(t, "/tmp/custom_history", resolveHistoryFile("/tmp/custom_history"))

	home := t.TempDir()
	t.Setenv("HOME", home)
	assert.Equal(t, filepath.Join(home, historyFileName), resolveHistoryFile(""))
}

func TestRuntimeClose(t *testing.T) {
	var calls int
	rt := &Runtime{closers: []func() error{
		func() error { calls++; return nil },
		func() error { calls++; return errors.New("redis: client is closed") },
	}}

	err := rt.Close()
	assert.Equal(t, 2, calls)
	assert.ErrorContains(t, err, "redis: client is closed")
}
