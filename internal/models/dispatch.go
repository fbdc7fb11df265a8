package models

import "time"

// DispatchEvent is one raw ingestion record for a 911 call sighting.
// event_id is the source system's call identifier and is NOT unique per
// incident: the same call can reappear under a different event_id, which is
// why listings are deduplicated on (call_type, address, call_created,
// jurisdiction).
type DispatchEvent struct {
	ID           int64      `json:"id"`
	EventID      string     `json:"event_id"`
	CallNumber   *string    `json:"call_number"`
	Address      *string    `json:"address"`
	CallType     *string    `json:"call_type"`
	Units        *string    `json:"units"`
	CallCreated  *time.Time `json:"call_created"`
	Jurisdiction *string    `json:"jurisdiction"`
	AgencyType   *string    `json:"agency_type"`
	Longitude    *float64   `json:"longitude"`
	Latitude     *float64   `json:"latitude"`
	FirstSeen    time.Time  `json:"first_seen"`
	LastSeen     time.Time  `json:"last_seen"`
	TimesSeen    int        `json:"times_seen"`
}

// DispatchPage is the paginated listing returned by GET /api/dispatches.
type DispatchPage struct {
	Events []DispatchEvent `json:"events"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
	Pages  int64           `json:"pages"`
}

// JurisdictionCount is one entry of the top-jurisdictions ranking.
type JurisdictionCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// TimelineBucket is one hourly bucket of the activity timeline.
type TimelineBucket struct {
	Hour  time.Time `json:"hour"`
	Count int64     `json:"count"`
}

// DispatchStats is the aggregate view returned by GET /api/stats.
// All counts are computed over the deduplicated set, anchored on call_created.
type DispatchStats struct {
	Total          int64               `json:"total"`
	ByType         map[string]int64    `json:"byType"`
	ByJurisdiction []JurisdictionCount `json:"byJurisdiction"`
	UniqueAgencies int64               `json:"uniqueAgencies"`
	Timeline       []TimelineBucket    `json:"timeline"`
	RecentCount    int64               `json:"recentCount"`
}

// FilterOption is a distinct value with its deduplicated occurrence count.
type FilterOption struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// CallTypeOption additionally carries the agency type the call type belongs
// to, so the dashboard can scope the call-type dropdown by agency.
type CallTypeOption struct {
	Name       string `json:"name"`
	AgencyType string `json:"agencyType"`
	Count      int64  `json:"count"`
}

// FilterOptions populates the dashboard filter dropdowns.
type FilterOptions struct {
	AgencyTypes   []FilterOption   `json:"agencyTypes"`
	Jurisdictions []FilterOption   `json:"jurisdictions"`
	CallTypes     []CallTypeOption `json:"callTypes"`
}
