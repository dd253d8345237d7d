package search

import (
	"fmt"

	"nl-sql-search/internal/common/config"
	"nl-sql-search/internal/common/database"
	"nl-sql-search/internal/common/logger"
)

// NewFromConfig wires a HybridSearch against the configured model endpoint
// and database.
func NewFromConfig(cfg *config.Config, log logger.Logger, opts ...Option) (*HybridSearch, error) {
	generator, err := NewGenerator(&GeneratorConfig{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     config.GetDuration(cfg.LLM.Timeout),
	}, log)
	if err != nil {
		return nil, fmt.Errorf("create generator: %w", err)
	}

	executor := NewExecutor(database.NewPostgresOpener(cfg.Database.Postgres), log)

	return NewHybridSearch(generator, executor, log, opts...), nil
}
