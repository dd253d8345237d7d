// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultLLMBaseURL  = "https://api.groq.com/openai/v1"
	DefaultLLMModel    = "llama-3.3-70b-versatile"
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 500
	DefaultHistoryKey  = "nlsql:history"
	DefaultHistorySize = 50
)

// Load reads configs/config.yaml (plus config.<env>.yaml when present),
// applies environment overrides and defaults, and validates the result.
// A missing config file is not an error: the service can run from
// environment variables alone.
func Load() (*Config, error) {
	v, err := readDefault()
	if err != nil {
		return nil, err
	}
	return finish(v, validateConfig)
}

// LoadDatabase is Load for tools that only talk to PostgreSQL: it skips
// the model endpoint and worker checks.
func LoadDatabase() (*PostgresConfig, error) {
	v, err := readDefault()
	if err != nil {
		return nil, err
	}
	cfg, err := finish(v, validatePostgres)
	if err != nil {
		return nil, err
	}
	return &cfg.Database.Postgres, nil
}

func readDefault() (*viper.Viper, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return v, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v, validateConfig)
}

func finish(v *viper.Viper, validate func(*Config) error) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideEmptyConfig(&cfg)
	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads the first .env found walking from the working
// directory towards the project root.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders left in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			// an unset variable expands to "" so defaults still apply
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills still-empty fields from the short environment
// names used by the database setup script and .env files.
func overrideEmptyConfig(cfg *Config) {
	pg := &cfg.Database.Postgres
	setIfEmpty(&pg.Host, "DB_HOST")
	setIfEmpty(&pg.Database, "DB_NAME")
	setIfEmpty(&pg.User, "DB_USER")
	setIfEmpty(&pg.Password, "DB_PASSWORD")
	if pg.Port == 0 {
		if val := os.Getenv("DB_PORT"); val != "" {
			if port, err := strconv.Atoi(val); err == nil {
				pg.Port = port
			}
		}
	}

	setIfEmpty(&cfg.LLM.APIKey, "LLM_API_KEY")
	setIfEmpty(&cfg.LLM.APIKey, "GROQ_API_KEY")
	setIfEmpty(&cfg.LLM.BaseURL, "LLM_BASE_URL")
	setIfEmpty(&cfg.LLM.Model, "LLM_MODEL")

	setIfEmpty(&cfg.Database.Redis.Address, "REDIS_ADDRESS")
	setIfEmpty(&cfg.Camunda.BrokerAddress, "CAMUNDA_BROKER_ADDRESS")
}

func setIfEmpty(field *string, envKey string) {
	if *field != "" {
		return
	}
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "nl-sql-search"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	pg := &cfg.Database.Postgres
	if pg.Host == "" {
		pg.Host = "localhost"
	}
	if pg.Port == 0 {
		pg.Port = 5432
	}
	if pg.Database == "" {
		pg.Database = "company_db"
	}
	if pg.User == "" {
		pg.User = "postgres"
	}
	if pg.SSLMode == "" {
		pg.SSLMode = "disable"
	}

	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = DefaultLLMBaseURL
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultLLMModel
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = DefaultTemperature
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = DefaultMaxTokens
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}

	if cfg.History.Key == "" {
		cfg.History.Key = DefaultHistoryKey
	}
	if cfg.History.Size == 0 {
		cfg.History.Size = DefaultHistorySize
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		cfg.Workers[key] = worker
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if err := validatePostgres(cfg); err != nil {
		return err
	}

	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required (or set LLM_API_KEY / GROQ_API_KEY)")
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2, got %v", cfg.LLM.Temperature)
	}
	if cfg.LLM.MaxTokens < 0 {
		return fmt.Errorf("llm.max_tokens must not be negative")
	}

	for name, worker := range cfg.Workers {
		if worker.Enabled && cfg.Camunda.BrokerAddress == "" {
			return fmt.Errorf("camunda.broker_address is required when worker %q is enabled", name)
		}
	}

	if cfg.History.Enabled && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when history is enabled")
	}

	return nil
}

func validatePostgres(cfg *Config) error {
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}
	return nil
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled:       false,
		MaxJobsActive: 5,
		Timeout:       30000,
	}
}

// IsWorkerEnabled reports whether a worker was explicitly enabled.
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return false
}
