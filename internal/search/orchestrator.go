package search

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "nl-sql-search/internal/common/errors"
	"nl-sql-search/internal/common/logger"
	"nl-sql-search/internal/models"
)

const tracerName = "nl-sql-search/search"

var (
	ErrGenerationFailed = &apperrors.StandardError{Code: apperrors.ErrCodeSQLGenerationFailed}
	ErrQueryRejected    = &apperrors.StandardError{Code: apperrors.ErrCodeSQLRejected}
	ErrExecutionFailed  = &apperrors.StandardError{Code: apperrors.ErrCodeSQLExecutionFailed}
)

// OutcomeOf maps an error returned by Search to the terminal outcome.
func OutcomeOf(err error) models.Outcome {
	switch {
	case err == nil:
		return models.OutcomeDone
	case errors.Is(err, ErrQueryRejected):
		return models.OutcomeRejected
	case errors.Is(err, ErrGenerationFailed):
		return models.OutcomeGenerationFailed
	default:
		return models.OutcomeExecutionFailed
	}
}

type SQLGenerator interface {
	Generate(ctx context.Context, question string) (string, error)
}

type SQLExecutor interface {
	Execute(ctx context.Context, statement string) (*models.ResultSet, error)
}

// Event describes one finished search for observers.
type Event struct {
	Outcome  models.Outcome
	Duration time.Duration
	Keyword  string // denylist hit, rejected searches only
	RowCount int
}

type Observer interface {
	ObserveSearch(ctx context.Context, ev Event)
}

type Option func(*HybridSearch)

func WithObserver(o Observer) Option {
	return func(s *HybridSearch) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *HybridSearch) {
		if t != nil {
			s.tracer = t
		}
	}
}

// HybridSearch runs generate -> validate -> execute. It holds no
// per-search state and may be shared.
type HybridSearch struct {
	generator SQLGenerator
	executor  SQLExecutor
	logger    logger.Logger
	tracer    trace.Tracer
	observers []Observer
}

func NewHybridSearch(generator SQLGenerator, executor SQLExecutor, log logger.Logger, opts ...Option) *HybridSearch {
	s := &HybridSearch{
		generator: generator,
		executor:  executor,
		logger:    log.With(map[string]interface{}{"component": "hybrid-search"}),
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search answers question. Exactly one of the returned values is non-nil;
// the error is always a *apperrors.StandardError whose code names the
// failing stage, and no later stage runs after a failure.
func (s *HybridSearch) Search(ctx context.Context, question string) (*models.SearchResult, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "hybrid_search")
	defer span.End()

	sql, err := s.generate(ctx, question)
	if err != nil {
		stdErr := apperrors.NewSQLGenerationFailedError(err)
		return nil, s.fail(ctx, span, start, models.OutcomeGenerationFailed, "", stdErr)
	}
	span.AddEvent(string(models.StageGenerated))

	verdict := ValidateSQL(sql)
	if !verdict.Valid {
		stdErr := apperrors.NewSQLRejectedError(verdict.Reason, nil)
		stdErr.Metadata = map[string]interface{}{"sql": sql}
		if verdict.Keyword != "" {
			stdErr.Metadata["keyword"] = verdict.Keyword
		}
		return nil, s.fail(ctx, span, start, models.OutcomeRejected, verdict.Keyword, stdErr)
	}
	span.AddEvent(string(models.StageValidated))

	rs, err := s.execute(ctx, sql)
	if err != nil {
		stdErr := apperrors.NewSQLExecutionFailedError(err)
		return nil, s.fail(ctx, span, start, models.OutcomeExecutionFailed, "", stdErr)
	}
	span.AddEvent(string(models.StageExecuted))

	result := &models.SearchResult{
		SQL:     sql,
		Columns: rs.Columns,
		Rows:    rs.Rows,
		Outcome: models.OutcomeDone,
	}

	span.SetAttributes(
		attribute.String("search.outcome", string(models.OutcomeDone)),
		attribute.Int("search.row_count", result.RowCount()),
	)
	s.logger.Info("search completed", map[string]interface{}{
		"rowCount":   result.RowCount(),
		"durationMs": time.Since(start).Milliseconds(),
	})
	s.notify(ctx, Event{
		Outcome:  models.OutcomeDone,
		Duration: time.Since(start),
		RowCount: result.RowCount(),
	})

	return result, nil
}

func (s *HybridSearch) generate(ctx context.Context, question string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "generate_sql")
	defer span.End()
	sql, err := s.generator.Generate(ctx, question)
	if err != nil {
		span.RecordError(err)
	}
	return sql, err
}

func (s *HybridSearch) execute(ctx context.Context, sql string) (*models.ResultSet, error) {
	ctx, span := s.tracer.Start(ctx, "execute_sql")
	defer span.End()
	rs, err := s.executor.Execute(ctx, sql)
	if err != nil {
		span.RecordError(err)
	}
	return rs, err
}

func (s *HybridSearch) fail(ctx context.Context, span trace.Span, start time.Time, outcome models.Outcome, keyword string, stdErr *apperrors.StandardError) error {
	span.SetAttributes(attribute.String("search.outcome", string(outcome)))
	span.SetStatus(codes.Error, stdErr.Message)

	s.logger.Warn("search failed", map[string]interface{}{
		"outcome":   string(outcome),
		"errorCode": string(stdErr.Code),
		"details":   stdErr.Details,
	})
	s.notify(ctx, Event{
		Outcome:  outcome,
		Duration: time.Since(start),
		Keyword:  keyword,
	})

	return stdErr
}

func (s *HybridSearch) notify(ctx context.Context, ev Event) {
	for _, o := range s.observers {
		o.ObserveSearch(ctx, ev)
	}
}
