package ingest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wnelson/dispatch-monitor/internal/store"
)

// Column positions are fixed by the upstream listing for this county:
// Column1=call number, Column2=address, Column3=call type, Column4=units,
// Column5=call created, Column6=jurisdiction, Column7=agency type.
func mapRow(row map[string]interface{}, sourceTitle, sourceToken string) store.IngestRecord {
	raw, _ := json.Marshal(row)
	return store.IngestRecord{
		EventID:      stringValue(row["EventID"]),
		CallNumber:   optString(row["Column1"]),
		Address:      optString(row["Column2"]),
		CallType:     optString(row["Column3"]),
		Units:        optString(row["Column4"]),
		CallCreated:  parseTimestamp(stringValue(row["Column5"])),
		Jurisdiction: optString(row["Column6"]),
		AgencyType:   optString(row["Column7"]),
		Longitude:    safeFloat(row["Longitude"]),
		Latitude:     safeFloat(row["Latitude"]),
		RawData:      raw,
		SourceTitle:  sourceTitle,
		SourceToken:  sourceToken,
	}
}

func stringValue(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func optString(v interface{}) *string {
	s := stringValue(v)
	if s == "" {
		return nil
	}
	return &s
}

// parseTimestamp handles the upstream "2025-12-10T10:34:30.603" format, with
// or without a trailing Z / offset.
func parseTimestamp(s string) *time.Time {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "Z")
	for _, layout := range []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// safeFloat converts upstream numbers that arrive as either JSON numbers or
// strings; anything unparsable becomes nil.
func safeFloat(v interface{}) *float64 {
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		return &x
	case string:
		if x == "" {
			return nil
		}
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}
