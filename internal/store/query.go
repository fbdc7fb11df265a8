package store

import (
	"fmt"
	"strings"
)

// EventFilter narrows the deduplicated listing. Zero values and the sentinel
// "all" impose no constraint. Date strings are handed to Postgres as-is;
// malformed values fail the query rather than being validated client-side.
type EventFilter struct {
	StartDate    string
	EndDate      string
	EventType    string // case-insensitive match on agency_type
	Jurisdiction string
	CallType     string
	Search       string // substring OR-ed across call_type, address, jurisdiction, units
}

// PageRequest carries sort and paging parameters for the listing.
type PageRequest struct {
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

const (
	defaultLimit = 100
	maxLimit     = 500
)

// sortFields is the allow-list of sortable columns. The sort field is the
// only piece of client input ever interpolated into SQL, so anything outside
// this map silently falls back to call_created.
var sortFields = map[string]bool{
	"call_created": true,
	"address":      true,
	"call_type":    true,
	"jurisdiction": true,
	"agency_type":  true,
	"first_seen":   true,
	"last_seen":    true,
}

// eventColumns is the scan order shared by every query returning full rows.
const eventColumns = `id, event_id, call_number, address, call_type, units,
	call_created, jurisdiction, agency_type, longitude, latitude,
	first_seen, last_seen, times_seen`

// normalizeSort applies the allow-list and direction defaults.
func normalizeSort(sortBy, sortOrder string) (string, string) {
	if !sortFields[sortBy] {
		sortBy = "call_created"
	}
	dir := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		dir = "ASC"
	}
	return sortBy, dir
}

// clampPage coerces limit/offset into [1,maxLimit] and [0,∞).
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// buildWhere composes the conjunction of the filters actually present.
// Placeholders are numbered from firstArg; only values go through args, never
// SQL text.
func buildWhere(f EventFilter, firstArg int) (string, []any) {
	var conds []string
	var args []any

	next := func() int { return firstArg + len(args) }

	if f.StartDate != "" {
		conds = append(conds, fmt.Sprintf("call_created >= $%d::timestamp", next()))
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		conds = append(conds, fmt.Sprintf("call_created <= $%d::timestamp", next()))
		args = append(args, f.EndDate)
	}
	if f.EventType != "" && !strings.EqualFold(f.EventType, "all") {
		conds = append(conds, fmt.Sprintf("LOWER(agency_type) = LOWER($%d)", next()))
		args = append(args, f.EventType)
	}
	if f.Jurisdiction != "" && !strings.EqualFold(f.Jurisdiction, "all") {
		conds = append(conds, fmt.Sprintf("jurisdiction = $%d", next()))
		args = append(args, f.Jurisdiction)
	}
	if f.CallType != "" && !strings.EqualFold(f.CallType, "all") {
		conds = append(conds, fmt.Sprintf("call_type = $%d", next()))
		args = append(args, f.CallType)
	}
	if f.Search != "" {
		n := next()
		conds = append(conds, fmt.Sprintf(
			"(call_type ILIKE $%d OR address ILIKE $%d OR jurisdiction ILIKE $%d OR units ILIKE $%d)",
			n, n, n, n))
		args = append(args, "%"+f.Search+"%")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// dedupSelect is the single-sourced deduplication subquery: one row per
// (call_type, address, call_created, jurisdiction) group, latest observation
// wins (max first_seen, id as deterministic tie-break).
func dedupSelect(where string) string {
	return fmt.Sprintf(`SELECT DISTINCT ON (call_type, address, call_created, jurisdiction)
		%s
	FROM events
	%s
	ORDER BY call_type, address, call_created, jurisdiction, first_seen DESC, id DESC`,
		eventColumns, where)
}

// buildListQuery returns the paginated dedup listing and its bind args.
func buildListQuery(f EventFilter, p PageRequest) (string, []any) {
	where, args := buildWhere(f, 1)
	sortBy, dir := normalizeSort(p.SortBy, p.SortOrder)
	limit, offset := clampPage(p.Limit, p.Offset)

	sql := fmt.Sprintf(`SELECT %s FROM (
%s
) d
ORDER BY d.%s %s NULLS LAST, d.id DESC
LIMIT $%d OFFSET $%d`,
		eventColumns, dedupSelect(where), sortBy, dir, len(args)+1, len(args)+2)

	args = append(args, limit, offset)
	return sql, args
}

// buildCountQuery counts distinct dedup-key groups matching the filters,
// independent of the page window.
func buildCountQuery(f EventFilter) (string, []any) {
	where, args := buildWhere(f, 1)
	sql := fmt.Sprintf(`SELECT COUNT(*) FROM (
	SELECT DISTINCT call_type, address, call_created, jurisdiction
	FROM events
	%s
) g`, where)
	return sql, args
}
