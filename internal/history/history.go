// Package history keeps a bounded list of recent searches in Redis.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "nl-sql-search/internal/common/errors"
	"nl-sql-search/internal/common/logger"
	"nl-sql-search/internal/models"
	"nl-sql-search/internal/search"
)

// Entry records one finished search. SQL is empty when generation failed.
type Entry struct {
	ID         string         `json:"id"`
	Question   string         `json:"question"`
	SQL        string         `json:"sql,omitempty"`
	Outcome    models.Outcome `json:"outcome"`
	RowCount   int            `json:"rowCount"`
	Error      string         `json:"error,omitempty"`
	DurationMs int64          `json:"durationMs"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// Store is a capped Redis list, newest first.
type Store struct {
	client *redis.Client
	key    string
	size   int
	logger logger.Logger
}

func NewStore(client *redis.Client, key string, size int, log logger.Logger) *Store {
	if size <= 0 {
		size = 50
	}
	return &Store{
		client: client,
		key:    key,
		size:   size,
		logger: log.With(map[string]interface{}{"component": "history"}),
	}
}

// Record prepends e, assigning an ID and timestamp when missing, and trims
// the list to its configured size.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(e)
	if err != nil {
		return e, fmt.Errorf("marshal history entry: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, s.key, data)
	pipe.LTrim(ctx, s.key, 0, int64(s.size-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return e, fmt.Errorf("record history: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first. limit <= 0 returns all.
// Undecodable entries are skipped.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	raw, err := s.client.LRange(ctx, s.key, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			s.logger.Warn("skipping undecodable history entry", map[string]interface{}{"error": err.Error()})
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *Store) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

// RecordSearch stores the outcome of one Search call. Failures are logged,
// never returned, so history never affects the search result.
func (s *Store) RecordSearch(ctx context.Context, question string, result *models.SearchResult, searchErr error, elapsed time.Duration) {
	e := Entry{
		Question:   question,
		Outcome:    search.OutcomeOf(searchErr),
		DurationMs: elapsed.Milliseconds(),
	}
	if result != nil {
		e.SQL = result.SQL
		e.RowCount = result.RowCount()
	}
	if searchErr != nil {
		stdErr := apperrors.Normalize(searchErr)
		e.Error = stdErr.Message
		if sql, ok := stdErr.Metadata["sql"].(string); ok {
			e.SQL = sql
		}
	}

	if _, err := s.Record(ctx, e); err != nil {
		s.logger.Warn("failed to record search history", map[string]interface{}{"error": err.Error()})
	}
}
