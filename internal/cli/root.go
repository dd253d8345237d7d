// Package cli provides the nlsql command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"nl-sql-search/internal/common/config"
	"nl-sql-search/internal/common/database"
	"nl-sql-search/internal/common/logger"
	"nl-sql-search/internal/history"
	"nl-sql-search/internal/models"
	"nl-sql-search/internal/render"
	"nl-sql-search/internal/search"
)

// Version information (set at build time).
var Version = "0.1.0"

type Searcher interface {
	Search(ctx context.Context, question string) (*models.SearchResult, error)
}

// HistoryStore is satisfied by *history.Store.
type HistoryStore interface {
	RecordSearch(ctx context.Context, question string, result *models.SearchResult, searchErr error, elapsed time.Duration)
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
	Clear(ctx context.Context) error
}

// Runtime holds what the search commands need. History is nil when
// disabled in configuration.
type Runtime struct {
	Searcher Searcher
	History  HistoryStore
	closers  []func() error
}

func (r *Runtime) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

type GlobalOptions struct {
	ConfigFile string
	Verbose    bool
}

// RuntimeFactory builds a Runtime for commands that talk to the model
// endpoint, the database or Redis.
type RuntimeFactory func(ctx context.Context, opts *GlobalOptions) (*Runtime, error)

// reportedError has already been shown to the user.
type reportedError struct{ error }

// NewRootCmd creates the root command. A nil factory uses DefaultRuntime.
func NewRootCmd(factory RuntimeFactory) *cobra.Command {
	if factory == nil {
		factory = DefaultRuntime
	}
	opts := &GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "nlsql",
		Short: "Ask questions about the company database in plain English",
		Long: `nlsql turns a natural-language question into a read-only SQL query,
checks it against a denylist of unsafe constructs and runs it against
PostgreSQL.

Without a subcommand it starts the interactive prompt.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd, factory, opts, &REPLOptions{Format: string(render.FormatTable)})
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default: ./configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Verbose logging to stderr")

	rootCmd.AddCommand(NewSearchCommand(factory, opts))
	rootCmd.AddCommand(NewREPLCommand(factory, opts))
	rootCmd.AddCommand(NewValidateCommand())
	rootCmd.AddCommand(NewSchemaCommand())
	rootCmd.AddCommand(NewExamplesCommand())
	rootCmd.AddCommand(NewHistoryCommand(factory, opts))

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd(nil)
	if err := rootCmd.Execute(); err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			render.Error(os.Stderr, "Error: %v", err)
		}
		return err
	}
	return nil
}

// DefaultRuntime loads configuration and wires the search pipeline and,
// when enabled, Redis-backed history.
func DefaultRuntime(ctx context.Context, opts *GlobalOptions) (*Runtime, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigFile != "" {
		cfg, err = config.LoadFromFile(opts.ConfigFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	level := "error"
	if opts.Verbose {
		level = "debug"
	}
	zapLog := logger.New(level, "console", "stderr")
	log := logger.NewZapAdapter(zapLog)

	searcher, err := search.NewFromConfig(cfg, log)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{Searcher: searcher}
	rt.closers = append(rt.closers, func() error {
		_ = zapLog.Sync()
		return nil
	})

	if cfg.History.Enabled {
		redisClient, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return nil, fmt.Errorf("history: %w", err)
		}
		rt.History = history.NewStore(redisClient.Client, cfg.History.Key, cfg.History.Size, log)
		rt.closers = append(rt.closers, redisClient.Close)
	}

	return rt, nil
}
