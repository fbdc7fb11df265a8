package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/wnelson/dispatch-monitor/internal/models"
)

// scanEvent reads one row in eventColumns order.
func scanEvent(row pgx.Row) (models.DispatchEvent, error) {
	var e models.DispatchEvent
	err := row.Scan(
		&e.ID, &e.EventID, &e.CallNumber, &e.Address, &e.CallType, &e.Units,
		&e.CallCreated, &e.Jurisdiction, &e.AgencyType, &e.Longitude, &e.Latitude,
		&e.FirstSeen, &e.LastSeen, &e.TimesSeen,
	)
	return e, err
}

func (s *Store) queryEvents(ctx context.Context, sql string, args ...any) ([]models.DispatchEvent, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.DispatchEvent{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListEvents returns the filtered, deduplicated, sorted, paginated listing.
// Total counts distinct dedup-key groups regardless of the page window.
func (s *Store) ListEvents(ctx context.Context, f EventFilter, p PageRequest) (models.DispatchPage, error) {
	limit, offset := clampPage(p.Limit, p.Offset)

	listSQL, listArgs := buildListQuery(f, p)
	events, err := s.queryEvents(ctx, listSQL, listArgs...)
	if err != nil {
		return models.DispatchPage{}, fmt.Errorf("list events: %w", err)
	}

	countSQL, countArgs := buildCountQuery(f)
	var total int64
	if err := s.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return models.DispatchPage{}, fmt.Errorf("count events: %w", err)
	}

	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}

	return models.DispatchPage{
		Events: events,
		Total:  total,
		Limit:  limit,
		Offset: offset,
		Pages:  pages,
	}, nil
}

// LatestEvents returns raw rows for incremental polling. Deliberately not
// deduplicated: a consumer reconciling deltas needs every observation.
func (s *Store) LatestEvents(ctx context.Context, since *time.Time, limit int) ([]models.DispatchEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	var (
		events []models.DispatchEvent
		err    error
	)
	if since != nil {
		events, err = s.queryEvents(ctx, fmt.Sprintf(
			`SELECT %s FROM events WHERE last_seen > $1 ORDER BY last_seen DESC LIMIT $2`,
			eventColumns), *since, limit)
	} else {
		events, err = s.queryEvents(ctx, fmt.Sprintf(
			`SELECT %s FROM events ORDER BY call_created DESC NULLS LAST LIMIT $1`,
			eventColumns), limit)
	}
	if err != nil {
		return nil, fmt.Errorf("latest events: %w", err)
	}
	return events, nil
}

const (
	timelineHours = 24
	recentHours   = 6
)

// Stats derives aggregate statistics over the deduplicated set, anchored on
// call_created throughout. The aggregates are independent reads and run
// concurrently; minor skew under concurrent ingestion is acceptable.
func (s *Store) Stats(ctx context.Context, startDate, endDate string) (models.DispatchStats, error) {
	f := EventFilter{StartDate: startDate, EndDate: endDate}
	where, args := buildWhere(f, 1)
	dedup := dedupSelect(where)

	stats := models.DispatchStats{
		ByType:         map[string]int64{},
		ByJurisdiction: []models.JurisdictionCount{},
		Timeline:       []models.TimelineBucket{},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sql, cargs := buildCountQuery(f)
		return s.pool.QueryRow(gctx, sql, cargs...).Scan(&stats.Total)
	})

	g.Go(func() error {
		sql := fmt.Sprintf(`SELECT LOWER(d.agency_type), COUNT(*) FROM (
%s
) d WHERE d.agency_type IS NOT NULL GROUP BY 1`, dedup)
		rows, err := s.pool.Query(gctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var t string
			var n int64
			if err := rows.Scan(&t, &n); err != nil {
				return err
			}
			stats.ByType[t] = n
		}
		return rows.Err()
	})

	g.Go(func() error {
		sql := fmt.Sprintf(`SELECT d.jurisdiction, COUNT(*) FROM (
%s
) d WHERE d.jurisdiction IS NOT NULL GROUP BY d.jurisdiction
ORDER BY COUNT(*) DESC LIMIT 10`, dedup)
		rows, err := s.pool.Query(gctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var jc models.JurisdictionCount
			if err := rows.Scan(&jc.Name, &jc.Count); err != nil {
				return err
			}
			stats.ByJurisdiction = append(stats.ByJurisdiction, jc)
		}
		return rows.Err()
	})

	g.Go(func() error {
		sql := fmt.Sprintf(`SELECT COUNT(DISTINCT d.jurisdiction) FROM (
%s
) d WHERE d.jurisdiction IS NOT NULL`, dedup)
		return s.pool.QueryRow(gctx, sql, args...).Scan(&stats.UniqueAgencies)
	})

	g.Go(func() error {
		sql := fmt.Sprintf(`SELECT date_trunc('hour', d.call_created), COUNT(*) FROM (
%s
) d WHERE d.call_created >= NOW() - INTERVAL '%d hours'
GROUP BY 1 ORDER BY 1`, dedup, timelineHours)
		rows, err := s.pool.Query(gctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var b models.TimelineBucket
			if err := rows.Scan(&b.Hour, &b.Count); err != nil {
				return err
			}
			stats.Timeline = append(stats.Timeline, b)
		}
		return rows.Err()
	})

	g.Go(func() error {
		sql := fmt.Sprintf(`SELECT COUNT(*) FROM (
%s
) d WHERE d.call_created >= NOW() - INTERVAL '%d hours'`, dedup, recentHours)
		return s.pool.QueryRow(gctx, sql, args...).Scan(&stats.RecentCount)
	})

	if err := g.Wait(); err != nil {
		return models.DispatchStats{}, fmt.Errorf("compute stats: %w", err)
	}
	return stats, nil
}

// valueCounts runs a (name, count) aggregate and collects the result.
func (s *Store) valueCounts(ctx context.Context, sql string) ([]models.FilterOption, error) {
	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.FilterOption{}
	for rows.Next() {
		var o models.FilterOption
		if err := rows.Scan(&o.Name, &o.Count); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// FilterOptions lists the distinct values (with dedup-set counts) that
// populate the dashboard filter dropdowns.
func (s *Store) FilterOptions(ctx context.Context) (models.FilterOptions, error) {
	dedup := dedupSelect("")
	var opts models.FilterOptions

	agencyTypes, err := s.valueCounts(ctx, fmt.Sprintf(`SELECT d.agency_type, COUNT(*) FROM (
%s
) d WHERE d.agency_type IS NOT NULL GROUP BY d.agency_type ORDER BY COUNT(*) DESC`, dedup))
	if err != nil {
		return opts, fmt.Errorf("agency types: %w", err)
	}
	opts.AgencyTypes = agencyTypes

	jurisdictions, err := s.valueCounts(ctx, fmt.Sprintf(`SELECT d.jurisdiction, COUNT(*) FROM (
%s
) d WHERE d.jurisdiction IS NOT NULL GROUP BY d.jurisdiction ORDER BY COUNT(*) DESC`, dedup))
	if err != nil {
		return opts, fmt.Errorf("jurisdictions: %w", err)
	}
	opts.Jurisdictions = jurisdictions

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`SELECT d.call_type, COALESCE(d.agency_type, ''), COUNT(*) FROM (
%s
) d WHERE d.call_type IS NOT NULL GROUP BY d.call_type, d.agency_type
ORDER BY COUNT(*) DESC LIMIT 200`, dedup))
	if err != nil {
		return opts, fmt.Errorf("call types: %w", err)
	}
	defer rows.Close()

	opts.CallTypes = []models.CallTypeOption{}
	for rows.Next() {
		var o models.CallTypeOption
		if err := rows.Scan(&o.Name, &o.AgencyType, &o.Count); err != nil {
			return opts, err
		}
		opts.CallTypes = append(opts.CallTypes, o)
	}
	return opts, rows.Err()
}
