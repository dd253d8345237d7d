// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"nl-sql-search/internal/api"
	"nl-sql-search/internal/common/camunda"
	"nl-sql-search/internal/common/config"
	"nl-sql-search/internal/common/database"
	"nl-sql-search/internal/common/logger"
	"nl-sql-search/internal/common/metrics"
	"nl-sql-search/internal/common/observability"
	"nl-sql-search/internal/history"
	"nl-sql-search/internal/search"

	hs "nl-sql-search/internal/workers/search/hybrid-search"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.FromConfig(cfg.Logging)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs := observability.New(cfg.App.Name, prometheus.DefaultRegisterer, log)
	searchMetrics := metrics.NewSearchMetrics(prometheus.DefaultRegisterer)

	searcher, err := search.NewFromConfig(cfg, log,
		search.WithObserver(searchMetrics),
		search.WithObserver(obs),
		search.WithTracer(obs.Tracer()),
	)
	if err != nil {
		zapLog.Fatal("hybrid search setup failed", zap.Error(err))
	}

	openPostgres := database.NewPostgresOpener(cfg.Database.Postgres)

	// --- Optional search history ---
	var store *history.Store
	if cfg.History.Enabled {
		redisClient, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			zapLog.Fatal("redis setup failed", zap.Error(err))
		}
		defer redisClient.Close()

		if err := redisClient.Ping(ctx); err != nil {
			zapLog.Warn("redis not reachable yet, history writes will be skipped until it is", zap.Error(err))
		}
		store = history.NewStore(redisClient.Client, cfg.History.Key, cfg.History.Size, log)
		zapLog.Info("Search history enabled", zap.String("key", cfg.History.Key), zap.Int("size", cfg.History.Size))
	}

	// --- Camunda job worker ---
	var searchWorker *camunda.CamundaWorker
	if config.IsWorkerEnabled(cfg, hs.TaskType) {
		zeebe, err := camunda.Connect(ctx, camunda.ClientConfigFrom(cfg.Camunda), log)
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer zeebe.Close()
		zapLog.Info("Zeebe client connected successfully")

		wcfg := config.GetWorkerConfig(cfg, hs.TaskType)
		handlerCfg := hs.LoadConfig()
		handlerCfg.Timeout = config.GetDuration(wcfg.Timeout)

		var recorder hs.HistoryRecorder
		if store != nil {
			recorder = store
		}
		handler := hs.NewHandler(handlerCfg, searcher, recorder, log)
		searchWorker = camunda.StartWorker(zeebe.GetClient(), hs.TaskType, wcfg, handler.Handle, log)
	}

	// --- HTTP API, health and metrics ---
	deps := api.Dependencies{
		Logger:   log,
		Searcher: searcher,
		Readiness: func(ctx context.Context) error {
			return database.Ping(ctx, openPostgres)
		},
	}
	if store != nil {
		deps.History = store
	}

	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	searchWorker.Stop()
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down metrics provider", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
