package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/alertstack/triage-engine/internal/api"
	"github.com/alertstack/triage-engine/internal/audit"
	"github.com/alertstack/triage-engine/internal/config"
	"github.com/alertstack/triage-engine/internal/engine"
	"github.com/alertstack/triage-engine/internal/metrics"
	"github.com/alertstack/triage-engine/internal/patterns"
	"github.com/alertstack/triage-engine/internal/repo"
	"github.com/alertstack/triage-engine/internal/services"
	"github.com/alertstack/triage-engine/internal/session"
	"github.com/alertstack/triage-engine/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting triage-engine", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	table, err := patterns.NewTable(cfg.Patterns.Path, logger)
	if err != nil {
		logger.Error("failed to load pattern pack", slog.Any("error", err))
		os.Exit(1)
	}

	var learning patterns.LearningStore = patterns.NewMemoryStore()
	if cfg.Learning.Enabled && cfg.Learning.PostgresURL != "" {
		store, err := patterns.NewPostgresStore(context.Background(), cfg.Learning.PostgresURL, logger)
		if err != nil {
			logger.Warn("learning store unavailable, falling back to in-memory", slog.Any("error", err))
		} else {
			learning = store
			defer store.Close()
		}
	}

	if err := patterns.Seed(context.Background(), table, learning); err != nil {
		logger.Warn("learning seed failed, using pack weights", slog.Any("error", err))
	}

	var source repo.AlertSource
	if cfg.Ingest.BaseURL != "" {
		source = repo.NewIngestClient(cfg.Ingest)
	}

	auditor := audit.NewEngine(cfg.Thresholds, cfg.Resources, logger)
	sessions, err := session.NewStore(cfg.Sessions, auditor.NewRegister, logger)
	if err != nil {
		logger.Error("failed to create session store", slog.Any("error", err))
		os.Exit(1)
	}

	pipeline := engine.NewPipeline(cfg, table, learning, logger)
	service := services.NewTriageService(logger, source, pipeline, auditor, sessions)

	server := api.NewServer(cfg.Server, service, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("http server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", slog.Any("error", err))
	}

	// Give remaining goroutines time to finish logging
	time.Sleep(100 * time.Millisecond)
	logger.Info("triage-engine stopped")
}
