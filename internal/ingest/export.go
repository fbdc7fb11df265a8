package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/wnelson/dispatch-monitor/internal/models"
)

// Exporter is the slice of the store CSV export needs.
type Exporter interface {
	ExportRows(ctx context.Context, limit int, fn func(models.DispatchEvent) error) error
}

var csvHeader = []string{
	"id", "event_id", "call_number", "address", "call_type", "units",
	"call_created", "jurisdiction", "agency_type", "longitude", "latitude",
	"first_seen", "last_seen", "times_seen",
}

// ExportCSV writes events newest-first as CSV. limit <= 0 exports all rows.
func ExportCSV(ctx context.Context, st Exporter, w io.Writer, limit int) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}

	n := 0
	err := st.ExportRows(ctx, limit, func(e models.DispatchEvent) error {
		rec := []string{
			strconv.FormatInt(e.ID, 10),
			e.EventID,
			deref(e.CallNumber),
			deref(e.Address),
			deref(e.CallType),
			deref(e.Units),
			formatTime(e.CallCreated),
			deref(e.Jurisdiction),
			deref(e.AgencyType),
			formatFloat(e.Longitude),
			formatFloat(e.Latitude),
			e.FirstSeen.Format(time.RFC3339),
			e.LastSeen.Format(time.RFC3339),
			strconv.Itoa(e.TimesSeen),
		}
		n++
		return cw.Write(rec)
	})
	if err != nil {
		return n, err
	}

	cw.Flush()
	return n, cw.Error()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
