package store

import (
	"context"
	"fmt"
	"time"

	"github.com/wnelson/dispatch-monitor/internal/models"
)

// IngestRecord is one mapped upstream row headed for the events table. It
// carries the passthrough fields (raw payload, source metadata) the query
// engine never reads.
type IngestRecord struct {
	EventID      string
	CallNumber   *string
	Address      *string
	CallType     *string
	Units        *string
	CallCreated  *time.Time
	Jurisdiction *string
	AgencyType   *string
	Longitude    *float64
	Latitude     *float64
	RawData      []byte
	SourceTitle  string
	SourceToken  string
}

// UpsertEvent inserts a new sighting or, when the event_id was already seen,
// bumps last_seen and times_seen. Returns true when the row is new.
func (s *Store) UpsertEvent(ctx context.Context, rec IngestRecord, observedAt time.Time) (bool, error) {
	var timesSeen int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO events (
			event_id, call_number, address, call_type, units,
			call_created, jurisdiction, agency_type, longitude, latitude,
			first_seen, last_seen, times_seen, raw_data, source_title, source_token
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$11,1,$12,$13,$14)
		ON CONFLICT (event_id) DO UPDATE SET
			last_seen = EXCLUDED.last_seen,
			times_seen = events.times_seen + 1
		RETURNING times_seen
	`,
		rec.EventID, rec.CallNumber, rec.Address, rec.CallType, rec.Units,
		rec.CallCreated, rec.Jurisdiction, rec.AgencyType, rec.Longitude, rec.Latitude,
		observedAt, rec.RawData, rec.SourceTitle, rec.SourceToken,
	).Scan(&timesSeen)
	if err != nil {
		return false, fmt.Errorf("upsert event %s: %w", rec.EventID, err)
	}
	return timesSeen == 1, nil
}

// LogIngestion appends one row to the ingestion audit log.
func (s *Store) LogIngestion(ctx context.Context, sum models.IngestSummary, sourceToken string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ingestion_log (
			events_fetched, new_events, updated_events, status,
			error_message, duration_seconds, source_token
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, sum.EventsFetched, sum.NewEvents, sum.UpdatedEvents, sum.Status,
		sum.ErrorMessage, sum.Duration, sourceToken)
	if err != nil {
		return fmt.Errorf("log ingestion: %w", err)
	}
	return nil
}

// RecentIngestions returns the newest audit-log entries, most recent first.
func (s *Store) RecentIngestions(ctx context.Context, limit int) ([]models.IngestionLogEntry, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, timestamp, events_fetched, new_events, updated_events,
		       status, error_message, duration_seconds
		FROM ingestion_log
		ORDER BY timestamp DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent ingestions: %w", err)
	}
	defer rows.Close()

	entries := []models.IngestionLogEntry{}
	for rows.Next() {
		var e models.IngestionLogEntry
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.EventsFetched, &e.NewEvents,
			&e.UpdatedEvents, &e.Status, &e.ErrorMessage, &e.Duration); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ExportRows streams raw event rows newest-first to fn, for CSV export.
// limit <= 0 exports everything.
func (s *Store) ExportRows(ctx context.Context, limit int, fn func(models.DispatchEvent) error) error {
	sql := fmt.Sprintf(`SELECT %s FROM events ORDER BY call_created DESC NULLS LAST`, eventColumns)
	args := []any{}
	if limit > 0 {
		sql += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("export rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return rows.Err()
}
