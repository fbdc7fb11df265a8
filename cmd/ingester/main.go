// The ingester fetches the FirstWatch public event listing into Postgres.
// Default is a single pass (the cron-friendly mode the dashboard deployment
// uses); -schedule keeps it resident on a cron expression.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/wnelson/dispatch-monitor/internal/config"
	"github.com/wnelson/dispatch-monitor/internal/ingest"
	"github.com/wnelson/dispatch-monitor/internal/store"
)

func main() {
	var (
		schedule   = flag.String("schedule", "", `cron expression to run on, e.g. "*/2 * * * *"; empty runs once`)
		exportPath = flag.String("export", "", "export events to this CSV file instead of ingesting")
		limit      = flag.Int("limit", 0, "max rows to export (0 = all)")
		showStats  = flag.Bool("stats", false, "print recent ingestion log entries and exit")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
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

	switch {
	case *exportPath != "":
		runExport(ctx, db, *exportPath, *limit, logger)
	case *showStats:
		runStats(ctx, db)
	default:
		runIngest(ctx, cfg, db, *schedule, logger)
	}
}

func runIngest(ctx context.Context, cfg *config.Config, db *store.Store, schedule string, logger *zap.Logger) {
	if cfg.IngestToken == "" {
		logger.Fatal("DISPATCH_API_TOKEN is required for ingestion")
	}

	client := ingest.NewClient(cfg.IngestBaseURL, cfg.IngestToken)
	ing := ingest.New(client, db, cfg.IngestToken, logger)

	if schedule == "" {
		if _, err := ing.Run(ctx); err != nil {
			logger.Fatal("ingestion failed", zap.Error(err))
		}
		return
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if _, err := ing.Run(ctx); err != nil {
			logger.Error("scheduled ingestion failed", zap.Error(err))
		}
	})
	if err != nil {
		logger.Fatal("bad cron expression", zap.String("schedule", schedule), zap.Error(err))
	}

	logger.Info("ingester running", zap.String("schedule", schedule))
	c.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	<-c.Stop().Done()
	logger.Info("ingester stopped")
}

func runExport(ctx context.Context, db *store.Store, path string, limit int, logger *zap.Logger) {
	f, err := os.Create(path)
	if err != nil {
		logger.Fatal("create export file", zap.Error(err))
	}
	defer f.Close()

	n, err := ingest.ExportCSV(ctx, db, f, limit)
	if err != nil {
		logger.Fatal("export failed", zap.Error(err))
	}
	logger.Info("export complete", zap.String("path", path), zap.Int("rows", n))
}

func runStats(ctx context.Context, db *store.Store) {
	entries, err := db.RecentIngestions(ctx, 10)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	for _, e := range entries {
		errMsg := ""
		if e.ErrorMessage != nil {
			errMsg = " error=" + *e.ErrorMessage
		}
		fmt.Printf("%s  fetched=%d new=%d updated=%d status=%s %.2fs%s\n",
			e.Timestamp.Format("2006-01-02 15:04:05"),
			e.EventsFetched, e.NewEvents, e.UpdatedEvents, e.Status, e.Duration, errMsg)
	}
}
