package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/wnelson/dispatch-monitor/internal/config"
	"github.com/wnelson/dispatch-monitor/internal/handlers"
	"github.com/wnelson/dispatch-monitor/internal/httpserver"
	"github.com/wnelson/dispatch-monitor/internal/ingest"
	"github.com/wnelson/dispatch-monitor/internal/presence"
	"github.com/wnelson/dispatch-monitor/internal/store"
)

// main boots the service: config → logger → DB → migrations → presence
// tracker → HTTP server, then waits for a shutdown signal.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Env)
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	db, err := store.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBConnTimeout)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	if err := store.Migrate(cfg.DatabaseURL, logger); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	tracker := presence.New(cfg.PresenceTimeout, cfg.PresenceSweep)
	tracker.Start()

	var runner handlers.IngestRunner
	if cfg.IngestToken != "" {
		client := ingest.NewClient(cfg.IngestBaseURL, cfg.IngestToken)
		runner = ingest.New(client, db, cfg.IngestToken, logger)
	}

	router := httpserver.NewRouter(cfg, db, tracker, runner, logger)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Addr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	tracker.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown incomplete", zap.Error(err))
	}
}

func newLogger(env string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "local" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return logger
}
