package seed

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"

	"nl-sql-search/internal/common/config"
	"nl-sql-search/internal/common/logger"
)

const (
	pgxDriver           = "pgx"
	maintenanceDatabase = "postgres"
	pingTimeout         = 5 * time.Second
)

type Report struct {
	DatabaseCreated bool
	SchemaVersion   int64
	Populated       bool
	Orders          int
}

// Run creates the database when missing, migrates it and loads sample
// data if the database is empty.
func Run(ctx context.Context, cfg config.PostgresConfig, rng *rand.Rand, log logger.Logger) (*Report, error) {
	report := &Report{}

	maint, err := openSQL(ctx, cfg.DSNFor(maintenanceDatabase))
	if err != nil {
		return nil, fmt.Errorf("open maintenance db: %w", err)
	}
	report.DatabaseCreated, err = EnsureDatabase(ctx, maint, cfg.Database)
	_ = maint.Close()
	if err != nil {
		return nil, err
	}
	if report.DatabaseCreated {
		log.Info("database created", map[string]interface{}{"database": cfg.Database})
	} else {
		log.Info("database already exists", map[string]interface{}{"database": cfg.Database})
	}

	db, err := openSQL(ctx, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Database, err)
	}
	defer db.Close()

	if err := Migrate(ctx, db, log); err != nil {
		return nil, err
	}
	if report.SchemaVersion, err = MigrationVersion(ctx, db); err != nil {
		return nil, fmt.Errorf("read schema version: %w", err)
	}
	log.Info("schema up to date", map[string]interface{}{"version": report.SchemaVersion})

	conn, err := pgx.Connect(ctx, cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Database, err)
	}
	defer conn.Close(context.Background())

	ds := SampleData(rng, time.Now())
	if report.Populated, err = Populate(ctx, conn, ds); err != nil {
		return nil, err
	}
	if !report.Populated {
		log.Info("sample data already exists", nil)
		return report, nil
	}

	report.Orders = len(ds.Orders)
	log.Info("sample data populated", map[string]interface{}{
		"departments": len(ds.Departments),
		"employees":   len(ds.Employees),
		"products":    len(ds.Products),
		"orders":      report.Orders,
	})
	return report, nil
}

func openSQL(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open(pgxDriver, dsn)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
