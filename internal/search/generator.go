package search

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	apphttp "nl-sql-search/internal/common/http"
	"nl-sql-search/internal/common/logger"
	"nl-sql-search/internal/schema"
)

const systemPrompt = "You are a SQL expert who converts natural language to SQL queries. " +
	"Return only the SQL query without any explanation or markdown formatting."

var promptRules = []string{
	"Only generate SELECT queries",
	"Use proper JOINs when needed",
	"Return ONLY the SQL query, nothing else",
	"Use appropriate WHERE clauses, GROUP BY, ORDER BY as needed",
}

var fencePattern = regexp.MustCompile("(?i)```(?:sql)?\\s*")

type GeneratorConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration // zero leaves the call bounded only by ctx
}

// Generator turns a question into SQL through an OpenAI-compatible chat
// completions endpoint. The output is not checked for syntax or safety.
type Generator struct {
	config *GeneratorConfig
	client *apphttp.Client
	logger logger.Logger
}

func NewGenerator(cfg *GeneratorConfig, log logger.Logger) (*Generator, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}

	normalized := *cfg
	normalized.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	normalized.APIKey = strings.TrimSpace(cfg.APIKey)

	return &Generator{
		config: &normalized,
		client: apphttp.NewClient(cfg.Timeout),
		logger: log.With(map[string]interface{}{
			"component": "generator",
			"model":     normalized.Model,
		}),
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate asks the model for one SQL statement answering question.
func (g *Generator) Generate(ctx context.Context, question string) (string, error) {
	payload := chatRequest{
		Model: g.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: BuildPrompt(question)},
		},
		Temperature: g.config.Temperature,
		MaxTokens:   g.config.MaxTokens,
	}

	start := time.Now()
	resp, err := g.client.PostJSON(ctx, g.config.BaseURL+"/chat/completions", payload, map[string]string{
		"Authorization": "Bearer " + g.config.APIKey,
	})
	if err != nil {
		return "", fmt.Errorf("request chat completion: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("chat completion failed status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(resp.Body)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return "", fmt.Errorf("decode chat completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty chat completion choices")
	}

	sql := StripCodeFences(parsed.Choices[0].Message.Content)

	g.logger.Debug("sql generated", map[string]interface{}{
		"latencyMs": time.Since(start).Milliseconds(),
		"sqlLength": len(sql),
	})

	return sql, nil
}

// BuildPrompt assembles the user message: schema, rules, then the question.
func BuildPrompt(question string) string {
	var b strings.Builder
	b.WriteString("You are a SQL expert. Convert the following natural language query into a PostgreSQL SQL query.\n\n")
	b.WriteString(schema.Describe())
	b.WriteString("\nRules:\n")
	for i, rule := range promptRules {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rule)
	}
	fmt.Fprintf(&b, "\nUser Query: %s\n\nSQL Query:", question)
	return b.String()
}

// StripCodeFences removes every ```sql / ``` marker, wherever it appears,
// and trims the result.
func StripCodeFences(content string) string {
	return strings.TrimSpace(fencePattern.ReplaceAllString(strings.TrimSpace(content), ""))
}
