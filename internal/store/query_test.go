package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSortAllowList(t *testing.T) {
	for _, field := range []string{
		"call_created", "address", "call_type", "jurisdiction",
		"agency_type", "first_seen", "last_seen",
	} {
		got, _ := normalizeSort(field, "desc")
		assert.Equal(t, field, got)
	}
}

func TestNormalizeSortRejectsUnknownFields(t *testing.T) {
	cases := []string{
		"id; DROP TABLE events",
		"times_seen",
		"call_created'--",
		"",
		"CALL_CREATED",
	}
	for _, c := range cases {
		field, dir := normalizeSort(c, "desc")
		assert.Equal(t, "call_created", field, "input %q must fall back", c)
		assert.Equal(t, "DESC", dir)
	}
}

func TestNormalizeSortOrder(t *testing.T) {
	_, dir := normalizeSort("address", "asc")
	assert.Equal(t, "ASC", dir)

	_, dir = normalizeSort("address", "ASC")
	assert.Equal(t, "ASC", dir)

	_, dir = normalizeSort("address", "sideways")
	assert.Equal(t, "DESC", dir)

	_, dir = normalizeSort("address", "")
	assert.Equal(t, "DESC", dir)
}

func TestClampPage(t *testing.T) {
	limit, offset := clampPage(0, 0)
	assert.Equal(t, defaultLimit, limit)
	assert.Equal(t, 0, offset)

	limit, offset = clampPage(-5, -10)
	assert.Equal(t, defaultLimit, limit)
	assert.Equal(t, 0, offset)

	limit, _ = clampPage(10_000, 0)
	assert.Equal(t, maxLimit, limit)

	limit, offset = clampPage(25, 50)
	assert.Equal(t, 25, limit)
	assert.Equal(t, 50, offset)
}

func TestBuildWhereEmptyFilter(t *testing.T) {
	where, args := buildWhere(EventFilter{}, 1)
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestBuildWhereAllSentinel(t *testing.T) {
	where, args := buildWhere(EventFilter{
		EventType:    "all",
		Jurisdiction: "All",
		CallType:     "ALL",
	}, 1)
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestBuildWhereConjunction(t *testing.T) {
	where, args := buildWhere(EventFilter{
		StartDate:    "2025-01-01",
		EndDate:      "2025-01-31",
		EventType:    "Fire",
		Jurisdiction: "Everett",
		CallType:     "Medic Response",
		Search:       "main st",
	}, 1)

	require.Len(t, args, 6)
	assert.Equal(t, "2025-01-01", args[0])
	assert.Equal(t, "2025-01-31", args[1])
	assert.Equal(t, "Fire", args[2])
	assert.Equal(t, "Everett", args[3])
	assert.Equal(t, "Medic Response", args[4])
	assert.Equal(t, "%main st%", args[5])

	assert.True(t, strings.HasPrefix(where, "WHERE "))
	assert.Equal(t, 5, strings.Count(where, " AND "))
	assert.Contains(t, where, "call_created >= $1::timestamp")
	assert.Contains(t, where, "call_created <= $2::timestamp")
	assert.Contains(t, where, "LOWER(agency_type) = LOWER($3)")
	assert.Contains(t, where, "jurisdiction = $4")
	assert.Contains(t, where, "call_type = $5")
	assert.Contains(t, where, "units ILIKE $6")
}

func TestBuildWhereRespectsFirstArg(t *testing.T) {
	where, args := buildWhere(EventFilter{Jurisdiction: "Everett"}, 3)
	assert.Contains(t, where, "jurisdiction = $3")
	assert.Equal(t, []any{"Everett"}, args)
}

// Filter values must never appear in the SQL text, only in the args. This is
// the injection defense for everything except the allow-listed sort field.
func TestBuildWhereValuesNotInterpolated(t *testing.T) {
	hostile := `'; DROP TABLE events; --`
	where, args := buildWhere(EventFilter{
		Jurisdiction: hostile,
		Search:       hostile,
	}, 1)
	assert.NotContains(t, where, "DROP TABLE")
	require.Len(t, args, 2)
	assert.Equal(t, hostile, args[0])
}

func TestBuildListQuery(t *testing.T) {
	sql, args := buildListQuery(
		EventFilter{Jurisdiction: "Everett"},
		PageRequest{SortBy: "address", SortOrder: "asc", Limit: 20, Offset: 40},
	)

	assert.Contains(t, sql, "DISTINCT ON (call_type, address, call_created, jurisdiction)")
	assert.Contains(t, sql, "first_seen DESC, id DESC")
	assert.Contains(t, sql, "ORDER BY d.address ASC NULLS LAST")
	assert.Contains(t, sql, "LIMIT $2 OFFSET $3")
	assert.Equal(t, []any{"Everett", 20, 40}, args)
}

func TestBuildListQueryHostileSortFallsBack(t *testing.T) {
	sql, _ := buildListQuery(
		EventFilter{},
		PageRequest{SortBy: "first_seen; DELETE FROM events", SortOrder: "desc"},
	)
	assert.Contains(t, sql, "ORDER BY d.call_created DESC")
	assert.NotContains(t, sql, "DELETE")
}

func TestBuildCountQueryIgnoresPaging(t *testing.T) {
	sql, args := buildCountQuery(EventFilter{EventType: "Fire"})
	assert.Contains(t, sql, "SELECT DISTINCT call_type, address, call_created, jurisdiction")
	assert.NotContains(t, sql, "LIMIT")
	assert.NotContains(t, sql, "OFFSET")
	assert.Equal(t, []any{"Fire"}, args)
}
