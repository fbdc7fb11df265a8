package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wnelson/dispatch-monitor/internal/models"
)

type fakeExporter struct {
	events []models.DispatchEvent
}

func (f *fakeExporter) ExportRows(_ context.Context, limit int, fn func(models.DispatchEvent) error) error {
	events := f.events
	if limit > 0 && limit < len(events) {
		events = events[:limit]
	}
	for _, e := range events {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

func TestExportCSV(t *testing.T) {
	addr := "1 Main St"
	lon := -122.2
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	exp := &fakeExporter{events: []models.DispatchEvent{
		{
			ID: 1, EventID: "a", Address: &addr, CallCreated: &created,
			Longitude: &lon,
			FirstSeen: created, LastSeen: created, TimesSeen: 2,
		},
		{ID: 2, EventID: "b", FirstSeen: created, LastSeen: created, TimesSeen: 1},
	}}

	var buf bytes.Buffer
	n, err := ExportCSV(context.Background(), exp, &buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3) // header + 2 rows

	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, "a", records[1][1])
	assert.Equal(t, "1 Main St", records[1][3])
	assert.Equal(t, "-122.2", records[1][9])
	assert.Equal(t, "", records[2][3], "nil fields export as empty strings")
}

func TestExportCSVLimit(t *testing.T) {
	exp := &fakeExporter{events: []models.DispatchEvent{{EventID: "a"}, {EventID: "b"}}}

	var buf bytes.Buffer
	n, err := ExportCSV(context.Background(), exp, &buf, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
