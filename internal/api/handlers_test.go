package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "nl-sql-search/internal/common/errors"
	"nl-sql-search/internal/common/logger"
	"nl-sql-search/internal/history"
	"nl-sql-search/internal/models"
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
	err      error
	limit    int
}

func (f *fakeHistory) RecordSearch(ctx context.Context, question string, result *models.SearchResult, searchErr error, elapsed time.Duration) {
	f.recorded = append(f.recorded, question)
}

func (f *fakeHistory) Recent(ctx context.Context, limit int) ([]history.Entry, error) {
	f.limit = limit
	return f.entries, f.err
}

func departmentsResult() *models.SearchResult {
	return &models.SearchResult{
		SQL:     "SELECT * FROM departments;",
		Columns: []string{"id", "name"},
		Rows:    [][]any{{int64(1), "Engineering"}, {int64(2), "Sales, EMEA"}},
		Outcome: models.OutcomeDone,
	}
}

func newTestServer(t *testing.T, deps Dependencies) *httptest.Server {
	t.Helper()
	if deps.Logger == nil {
		deps.Logger = logger.NewTestLogger(t)
	}
	srv := httptest.NewServer(NewRouter(deps))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// ==========================
// Search
// ==========================

func TestSearch_Success(t *testing.T) {
	searcher := &fakeSearcher{result: departmentsResult()}
	hist := &fakeHistory{}
	srv := newTestServer(t, Dependencies{Searcher: searcher, History: hist})

	resp := postJSON(t, srv.URL+"/api/search", `{"question":" List all departments "}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	body := decodeBody(t, resp)
	assert.Equal(t, "SELECT * FROM departments;", body["sql"])
	assert.Equal(t, []any{"id", "name"}, body["columns"])
	assert.Equal(t, float64(2), body["rowCount"])
	assert.Equal(t, "done", body["outcome"])
	assert.Equal(t, "Found 2 results", body["message"])

	assert.Equal(t, []string{"List all departments"}, searcher.seen)
	assert.Equal(t, []string{"List all departments"}, hist.recorded)
}

func TestSearch_EmptyResultMessage(t *testing.T) {
	searcher := &fakeSearcher{result: &models.SearchResult{SQL: "SELECT 1 WHERE false", Columns: []string{"x"}, Rows: [][]any{}, Outcome: models.OutcomeDone}}
	srv := newTestServer(t, Dependencies{Searcher: searcher})

	body := decodeBody(t, postJSON(t, srv.URL+"/api/search", `{"question":"nothing"}`))
	assert.Equal(t, "No results found for your query.", body["message"])
	assert.Equal(t, []any{}, body["rows"])
}

func TestSearch_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "rejected",
			err:        apperrors.NewSQLRejectedError("Forbidden SQL keyword detected: drop", nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "SQL_REJECTED",
			wantMsg:    "Security Error: Forbidden SQL keyword detected: drop",
		},
		{
			name:       "generation failed",
			err:        apperrors.NewSQLGenerationFailedError(errors.New("status=503")),
			wantStatus: http.StatusBadGateway,
			wantCode:   "SQL_GENERATION_FAILED",
			wantMsg:    "Failed to generate SQL: status=503",
		},
		{
			name:       "execution failed",
			err:        apperrors.NewSQLExecutionFailedError(errors.New(`pq: relation "x" does not exist`)),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "SQL_EXECUTION_FAILED",
			wantMsg:    `pq: relation "x" does not exist`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hist := &fakeHistory{}
			srv := newTestServer(t, Dependencies{Searcher: &fakeSearcher{err: tt.err}, History: hist})

			resp := postJSON(t, srv.URL+"/api/search", `{"question":"q"}`)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body := decodeBody(t, resp)
			assert.Equal(t, tt.wantCode, body["error_code"])
			assert.Equal(t, tt.wantMsg, body["message"])
			assert.NotEmpty(t, body["request_id"])
			assert.NotContains(t, body, "sql")
			assert.Len(t, hist.recorded, 1)
		})
	}
}

func TestSearch_InvalidInput(t *testing.T) {
	bodies := []string{
		`not json`,
		`{}`,
		`{"question":""}`,
		`{"question":"   "}`,
		`{"question":12}`,
	}

	for _, b := range bodies {
		searcher := &fakeSearcher{}
		hist := &fakeHistory{}
		srv := newTestServer(t, Dependencies{Searcher: searcher, History: hist})

		resp := postJSON(t, srv.URL+"/api/search", b)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, b)
		assert.Equal(t, "INVALID_INPUT", decodeBody(t, resp)["error_code"], b)
		assert.Empty(t, searcher.seen, b)
		assert.Empty(t, hist.recorded, b)
	}
}

func TestSearch_LongQuestionReachesSearcher(t *testing.T) {
	question := strings.Repeat("x", 5000)
	searcher := &fakeSearcher{result: departmentsResult()}
	srv := newTestServer(t, Dependencies{Searcher: searcher})

	resp := postJSON(t, srv.URL+"/api/search", `{"question":"`+question+`"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{question}, searcher.seen)
}

func TestSearch_PropagatesRequestID(t *testing.T) {
	srv := newTestServer(t, Dependencies{Searcher: &fakeSearcher{err: apperrors.NewSQLRejectedError("Only SELECT queries are allowed", nil)}})

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/search", strings.NewReader(`{"question":"q"}`))
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "req-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "req-123", resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "req-123", decodeBody(t, resp)["request_id"])
}

// ==========================
// Export
// ==========================

func TestExport_CSVAttachment(t *testing.T) {
	srv := newTestServer(t, Dependencies{Searcher: &fakeSearcher{result: departmentsResult()}})

	resp := postJSON(t, srv.URL+"/api/search/export", `{"question":"List all departments"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="query_results.csv"`, resp.Header.Get("Content-Disposition"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "id,name\n1,Engineering\n2,\"Sales, EMEA\"\n", string(raw))
}

func TestExport_ErrorIsJSON(t *testing.T) {
	srv := newTestServer(t, Dependencies{Searcher: &fakeSearcher{err: apperrors.NewSQLRejectedError("Only SELECT queries are allowed", nil)}})

	resp := postJSON(t, srv.URL+"/api/search/export", `{"question":"q"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

// ==========================
// Catalogue endpoints
// ==========================

func TestSchemaAndExamples(t *testing.T) {
	srv := newTestServer(t, Dependencies{Searcher: &fakeSearcher{}})

	resp, err := http.Get(srv.URL + "/api/schema")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Contains(t, body["description"], "Database Schema:")
	assert.Len(t, body["tables"], 4)

	resp2, err := http.Get(srv.URL + "/api/examples")
	require.NoError(t, err)
	defer resp2.Body.Close()
	body2 := decodeBody(t, resp2)
	assert.Len(t, body2["groups"], 4)
}

func TestHistory(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		srv := newTestServer(t, Dependencies{Searcher: &fakeSearcher{}})
		resp, err := http.Get(srv.URL + "/api/history")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("lists entries with limit", func(t *testing.T) {
		hist := &fakeHistory{entries: []history.Entry{{ID: "a", Question: "q1", Outcome: models.OutcomeDone}}}
		srv := newTestServer(t, Dependencies{Searcher: &fakeSearcher{}, History: hist})

		resp, err := http.Get(srv.URL + "/api/history?limit=5")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 5, hist.limit)
		assert.Len(t, decodeBody(t, resp)["entries"], 1)
	})

	t.Run("bad limit", func(t *testing.T) {
		srv := newTestServer(t, Dependencies{Searcher: &fakeSearcher{}, History: &fakeHistory{}})
		resp, err := http.Get(srv.URL + "/api/history?limit=abc")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("store down", func(t *testing.T) {
		srv := newTestServer(t, Dependencies{Searcher: &fakeSearcher{}, History: &fakeHistory{err: errors.New("redis: connection refused")}})
		resp, err := http.Get(srv.URL + "/api/history")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

// ==========================
// Probes
// ==========================

func TestProbes(t *testing.T) {
	ready := errors.New("postgres ping failed: connection refused")
	srv := newTestServer(t, Dependencies{
		Searcher:  &fakeSearcher{},
		Readiness: func(ctx context.Context) error { return ready },
		Metrics:   http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("# metrics")) }),
	})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/ready")
	require.NoError(t, err)
	body := decodeBody(t, resp)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "not_ready", body["status"])

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "# metrics", string(raw))
}
