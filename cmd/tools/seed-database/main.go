// cmd/tools/seed-database/main.go
package main

import (
	"math/rand/v2"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nl-sql-search/internal/common/config"
	"nl-sql-search/internal/common/logger"
	"nl-sql-search/internal/render"
	"nl-sql-search/internal/seed"
)

func main() {
	var (
		randSeed  uint64
		logFormat string
	)

	cmd := &cobra.Command{
		Use:   "seed-database",
		Short: "Create, migrate and populate the company database",
		Long: `seed-database creates the configured database when it does not exist,
applies the schema migrations and loads sample departments, employees,
products and orders. Sample data is only written into an empty database.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			zapLog := logger.New("info", logFormat)
			defer zapLog.Sync()
			log := logger.NewZapAdapter(zapLog)

			pg, err := config.LoadDatabase()
			if err != nil {
				return err
			}

			if randSeed == 0 {
				randSeed = uint64(time.Now().UnixNano())
			}
			rng := rand.New(rand.NewPCG(randSeed, randSeed>>1))

			zapLog.Info("Starting database initialization",
				zap.String("host", pg.Host),
				zap.Int("port", pg.Port),
				zap.String("database", pg.Database),
				zap.Uint64("seed", randSeed),
			)

			report, err := seed.Run(cmd.Context(), *pg, rng, log)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if report.Populated {
				render.Success(out, "Sample data populated (%d orders)", report.Orders)
			} else {
				render.Info(out, "Sample data already exists")
			}
			render.Success(out, "Database initialization complete (schema version %d)", report.SchemaVersion)
			return nil
		},
	}

	cmd.Flags().Uint64Var(&randSeed, "seed", 0, "Random seed for prices, totals and dates (0 = time based)")
	cmd.Flags().StringVar(&logFormat, "log-format", "console", "Log format: console or json")

	if err := cmd.Execute(); err != nil {
		render.Error(os.Stderr, "Error: %v", err)
		os.Exit(1)
	}
}
