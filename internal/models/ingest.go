package models

import "time"

// IngestSummary is the outcome of one ingestion pass against the upstream
// event listing.
type IngestSummary struct {
	EventsFetched int     `json:"events_fetched"`
	NewEvents     int     `json:"new_events"`
	UpdatedEvents int     `json:"updated_events"`
	Status        string  `json:"status"`
	ErrorMessage  *string `json:"error_message,omitempty"`
	Duration      float64 `json:"duration_seconds"`
}

// IngestionLogEntry is one persisted row of the ingestion audit log.
type IngestionLogEntry struct {
	ID            int64     `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	EventsFetched int       `json:"events_fetched"`
	NewEvents     int       `json:"new_events"`
	UpdatedEvents int       `json:"updated_events"`
	Status        string    `json:"status"`
	ErrorMessage  *string   `json:"error_message"`
	Duration      float64   `json:"duration_seconds"`
}
