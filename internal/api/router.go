// Package api exposes hybrid search over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nl-sql-search/internal/common/logger"
	"nl-sql-search/internal/history"
	"nl-sql-search/internal/models"
)

const requestIDHeader = "X-Request-ID"

type ReadinessCheck func(ctx context.Context) error

type Searcher interface {
	Search(ctx context.Context, question string) (*models.SearchResult, error)
}

// HistoryStore is satisfied by *history.Store.
type HistoryStore interface {
	RecordSearch(ctx context.Context, question string, result *models.SearchResult, searchErr error, elapsed time.Duration)
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

type Dependencies struct {
	Logger           logger.Logger
	Searcher         Searcher
	History          HistoryStore // optional
	Readiness        ReadinessCheck
	Metrics          http.Handler // defaults to promhttp.Handler()
	ReadinessTimeout time.Duration
}

// NewRouter builds the HTTP surface: search, export, catalogue endpoints
// and the health/metrics probes.
func NewRouter(deps Dependencies) http.Handler {
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	if deps.Metrics == nil {
		deps.Metrics = promhttp.Handler()
	}
	if deps.ReadinessTimeout <= 0 {
		deps.ReadinessTimeout = 2 * time.Second
	}

	h := &handlers{deps: deps, logger: deps.Logger.With(map[string]interface{}{"component": "api"})}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(h.accessLog)

	r.Get("/health", h.health)
	r.Get("/ready", h.ready)
	r.Method(http.MethodGet, "/metrics", deps.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Post("/search", h.search)
		r.Post("/search/export", h.export)
		r.Get("/schema", h.schema)
		r.Get("/examples", h.examples)
		r.Get("/history", h.history)
	})

	return r
}

// requestID propagates or assigns an X-Request-ID. chi's RequestID mints
// host-prefixed counters; history entries and error bodies use uuids.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

type requestIDKey struct{}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (h *handlers) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug("http request", map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"durationMs": time.Since(start).Milliseconds(),
			"requestId":  requestIDFrom(r.Context()),
		})
	})
}
