package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "nl-sql-search/internal/common/errors"
	"nl-sql-search/internal/common/logger"
	"nl-sql-search/internal/common/validation"
	"nl-sql-search/internal/examples"
	"nl-sql-search/internal/models"
	"nl-sql-search/internal/render"
	"nl-sql-search/internal/schema"
)

const (
	maxBodyBytes      = 64 << 10
	exportFileName    = "query_results.csv"
	defaultHistoryMax = 20
)

type handlers struct {
	deps   Dependencies
	logger logger.Logger
}

type searchResponse struct {
	SQL      string         `json:"sql"`
	Columns  []string       `json:"columns"`
	Rows     [][]any        `json:"rows"`
	RowCount int            `json:"rowCount"`
	Outcome  models.Outcome `json:"outcome"`
	Message  string         `json:"message"`
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *handlers) ready(w http.ResponseWriter, r *http.Request) {
	if h.deps.Readiness != nil {
		ctx, cancel := context.WithTimeout(r.Context(), h.deps.ReadinessTimeout)
		defer cancel()
		if err := h.deps.Readiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "not_ready",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	result, err := h.runSearch(r)
	if err != nil {
		h.writeSearchError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		SQL:      result.SQL,
		Columns:  result.Columns,
		Rows:     result.Rows,
		RowCount: result.RowCount(),
		Outcome:  result.Outcome,
		Message:  render.Summary(result.RowCount()),
	})
}

func (h *handlers) export(w http.ResponseWriter, r *http.Request) {
	result, err := h.runSearch(r)
	if err != nil {
		h.writeSearchError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFileName+`"`)
	w.WriteHeader(http.StatusOK)
	if err := render.CSV(w, result.Columns, result.Rows); err != nil {
		h.logger.Warn("failed to write csv export", map[string]interface{}{"error": err.Error()})
	}
}

func (h *handlers) schema(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"description":   schema.Describe(),
		"tables":        schema.Tables,
		"relationships": schema.Relationships,
	})
}

func (h *handlers) examples(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"placeholder": examples.Placeholder,
		"groups":      examples.All(),
	})
}

func (h *handlers) history(w http.ResponseWriter, r *http.Request) {
	if h.deps.History == nil {
		writeError(w, r, http.StatusNotFound, "HISTORY_DISABLED", "search history is not enabled")
		return
	}

	limit := defaultHistoryMax
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, r, http.StatusBadRequest, string(apperrors.ErrCodeInvalidInput), "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := h.deps.History.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to read history", map[string]interface{}{"error": err.Error()})
		writeError(w, r, http.StatusServiceUnavailable, "HISTORY_UNAVAILABLE", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// runSearch decodes {"question": ...}, validates it and runs the search,
// recording the outcome in history when configured.
func (h *handlers) runSearch(r *http.Request) (*models.SearchResult, error) {
	question, err := decodeQuestion(r)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := h.deps.Searcher.Search(r.Context(), question)
	if h.deps.History != nil {
		h.deps.History.RecordSearch(r.Context(), question, result, err, time.Since(start))
	}
	return result, err
}

func decodeQuestion(r *http.Request) (string, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return "", apperrors.NewInvalidInputError("read body: " + err.Error())
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", apperrors.NewInvalidInputError("request body must be a JSON object")
	}
	if res := validation.ValidateSearchInput(raw); !res.Valid {
		return "", apperrors.NewInvalidInputError(strings.Join(res.GetErrorMessages(), "; "))
	}

	question, _ := raw["question"].(string)
	return strings.TrimSpace(question), nil
}

func (h *handlers) writeSearchError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := apperrors.Normalize(err)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(stdErr, &apperrors.StandardError{Code: apperrors.ErrCodeInvalidInput}):
		status = http.StatusBadRequest
	case errors.Is(stdErr, &apperrors.StandardError{Code: apperrors.ErrCodeSQLRejected}):
		status = http.StatusUnprocessableEntity
	case errors.Is(stdErr, &apperrors.StandardError{Code: apperrors.ErrCodeSQLGenerationFailed}):
		status = http.StatusBadGateway
	}

	message := stdErr.Message
	if stdErr.Code == apperrors.ErrCodeInvalidInput && stdErr.Details != "" {
		message = stdErr.Details
	}
	writeError(w, r, status, string(stdErr.Code), message)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error_code": code,
		"message":    message,
		"request_id": requestIDFrom(r.Context()),
	})
}
