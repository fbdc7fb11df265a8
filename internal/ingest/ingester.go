package ingest

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wnelson/dispatch-monitor/internal/models"
	"github.com/wnelson/dispatch-monitor/internal/store"
)

// EventWriter is the slice of the store the ingester needs.
type EventWriter interface {
	UpsertEvent(ctx context.Context, rec store.IngestRecord, observedAt time.Time) (bool, error)
	LogIngestion(ctx context.Context, sum models.IngestSummary, sourceToken string) error
}

// Fetcher retrieves the current upstream listing.
type Fetcher interface {
	Fetch(ctx context.Context) (*Listing, error)
}

// Ingester runs one fetch-and-store pass at a time.
type Ingester struct {
	client Fetcher
	writer EventWriter
	token  string
	logger *zap.Logger
}

// New wires an Ingester.
func New(client Fetcher, writer EventWriter, token string, logger *zap.Logger) *Ingester {
	return &Ingester{client: client, writer: writer, token: token, logger: logger}
}

// Run fetches the listing, upserts every row carrying an EventID, and writes
// an audit-log entry. The summary is returned even on failure so callers can
// report it.
func (ing *Ingester) Run(ctx context.Context) (models.IngestSummary, error) {
	start := time.Now()
	sum := models.IngestSummary{Status: "success"}

	listing, err := ing.client.Fetch(ctx)
	if err != nil {
		return ing.fail(ctx, sum, start, err)
	}

	sum.EventsFetched = len(listing.Rows)
	ing.logger.Info("fetched event listing",
		zap.Int("rows", len(listing.Rows)),
		zap.String("title", listing.Title))

	now := time.Now()
	for _, row := range listing.Rows {
		rec := mapRow(row, listing.Title, ing.token)
		if rec.EventID == "" {
			continue
		}
		isNew, err := ing.writer.UpsertEvent(ctx, rec, now)
		if err != nil {
			return ing.fail(ctx, sum, start, err)
		}
		if isNew {
			sum.NewEvents++
		} else {
			sum.UpdatedEvents++
		}
	}

	sum.Duration = time.Since(start).Seconds()
	if err := ing.writer.LogIngestion(ctx, sum, ing.token); err != nil {
		// The events are already stored; a failed audit write is not worth
		// failing the pass over.
		ing.logger.Warn("ingestion log write failed", zap.Error(err))
	}

	ing.logger.Info("ingestion complete",
		zap.Int("new", sum.NewEvents),
		zap.Int("updated", sum.UpdatedEvents),
		zap.Float64("seconds", sum.Duration))
	return sum, nil
}

func (ing *Ingester) fail(ctx context.Context, sum models.IngestSummary, start time.Time, err error) (models.IngestSummary, error) {
	msg := err.Error()
	sum.Status = "error"
	sum.ErrorMessage = &msg
	sum.Duration = time.Since(start).Seconds()
	if logErr := ing.writer.LogIngestion(ctx, sum, ing.token); logErr != nil {
		ing.logger.Warn("ingestion log write failed", zap.Error(logErr))
	}
	return sum, err
}
