package hybridsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "nl-sql-search/internal/common/errors"
	"nl-sql-search/internal/common/logger"
	"nl-sql-search/internal/common/metrics"
	"nl-sql-search/internal/common/validation"
	"nl-sql-search/internal/models"
)

const (
	TaskType = "hybrid-search"
)

type Searcher interface {
	Search(ctx context.Context, question string) (*models.SearchResult, error)
}

// HistoryRecorder is satisfied by *history.Store.
type HistoryRecorder interface {
	RecordSearch(ctx context.Context, question string, result *models.SearchResult, searchErr error, elapsed time.Duration)
}

type Handler struct {
	config       *Config
	searcher     Searcher
	history      HistoryRecorder
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

// NewHandler wires the job worker. history may be nil.
func NewHandler(config *Config, searcher Searcher, history HistoryRecorder, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		searcher:     searcher,
		history:      history,
		errorHandler: apperrors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer func() {
		metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	}()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job.Variables)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

// parseInput validates the job variables against the search input schema.
func (h *Handler) parseInput(variables string) (*Input, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(variables), &raw); err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
	}

	if res := validation.ValidateSearchInput(raw); !res.Valid {
		return nil, apperrors.NewInvalidInputError(strings.Join(res.GetErrorMessages(), "; "))
	}

	question, _ := raw["question"].(string)
	return &Input{Question: strings.TrimSpace(question)}, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, apperrors.NewInvalidInputError("input cannot be nil")
	}

	start := time.Now()
	result, err := h.searcher.Search(ctx, input.Question)
	if h.history != nil {
		h.history.RecordSearch(ctx, input.Question, result, err, time.Since(start))
	}
	if err != nil {
		return nil, err
	}

	return &Output{
		SQL:      result.SQL,
		Columns:  result.Columns,
		Rows:     result.Rows,
		RowCount: result.RowCount(),
		Outcome:  result.Outcome,
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		h.fail(ctx, client, job, err)
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":   job.Key,
		"rowCount": output.RowCount,
	})
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := apperrors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, stdErr)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) ParseInput(variables string) (*Input, error) {
	return h.parseInput(variables)
}
