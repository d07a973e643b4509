package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/blessedfam/weeklyrank/internal/adapters/http/api"
	"github.com/blessedfam/weeklyrank/internal/adapters/store"
	"github.com/blessedfam/weeklyrank/internal/aggregator"
	"github.com/blessedfam/weeklyrank/internal/config"
	"github.com/blessedfam/weeklyrank/internal/domain/scoring"
	"github.com/blessedfam/weeklyrank/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Local development convenience; absent .env files are not an error.
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	db, err := store.Open(ctx, store.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Error(ctx, "failed to open store", logger.Error(err))
		return
	}
	defer func() { _ = db.Close() }()
	sqlStore := store.NewSQLStore(db)

	policy := scoring.NewWeightedPolicy(
		scoring.WithSlotWeights(cfg.SlotWeights),
		scoring.WithGrace(time.Duration(cfg.GraceMinutes)*time.Minute),
		scoring.WithDecay(time.Duration(cfg.DecayMinutes)*time.Minute),
		scoring.WithDecayFloor(cfg.DecayFloor),
	)

	engine := aggregator.New(sqlStore, sqlStore, policy,
		aggregator.WithWorkerCount(cfg.WorkerCount),
		aggregator.WithTimeout(time.Duration(cfg.ComputeTimeoutSec)*time.Second),
		aggregator.WithLogger(log.Named("aggregator")),
	)

	mux := http.NewServeMux()
	api.NewServer(engine, engine, cfg.MaxSummaryLimit).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}
