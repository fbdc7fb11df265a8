package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wnelson/dispatch-monitor/internal/models"
	"github.com/wnelson/dispatch-monitor/internal/store"
)

// DispatchStore is the query-engine surface the dispatch routes need.
type DispatchStore interface {
	ListEvents(ctx context.Context, f store.EventFilter, p store.PageRequest) (models.DispatchPage, error)
	LatestEvents(ctx context.Context, since *time.Time, limit int) ([]models.DispatchEvent, error)
	Stats(ctx context.Context, startDate, endDate string) (models.DispatchStats, error)
	FilterOptions(ctx context.Context) (models.FilterOptions, error)
}

// RegisterDispatchRoutes registers the public read endpoints.
//
// GET /dispatches         — deduplicated, filtered, sorted, paginated listing
// GET /dispatches/latest  — raw rows for incremental polling
// GET /stats              — aggregate statistics
// GET /filters            — dropdown values with counts
func RegisterDispatchRoutes(r gin.IRoutes, st DispatchStore, logger *zap.Logger) {
	r.GET("/dispatches", func(c *gin.Context) {
		filter := store.EventFilter{
			StartDate:    c.Query("startDate"),
			EndDate:      c.Query("endDate"),
			EventType:    c.Query("eventType"),
			Jurisdiction: c.Query("jurisdiction"),
			CallType:     c.Query("callType"),
			Search:       c.Query("search"),
		}
		page := store.PageRequest{
			SortBy:    c.Query("sortBy"),
			SortOrder: c.Query("sortOrder"),
			Limit:     intQuery(c, "limit", 100),
			Offset:    intQuery(c, "offset", 0),
		}

		result, err := st.ListEvents(c.Request.Context(), filter, page)
		if err != nil {
			logger.Error("list dispatches failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch dispatches"})
			return
		}
		c.JSON(http.StatusOK, result)
	})

	r.GET("/dispatches/latest", func(c *gin.Context) {
		var since *time.Time
		if raw := c.Query("since"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC3339"})
				return
			}
			since = &t
		}

		events, err := st.LatestEvents(c.Request.Context(), since, intQuery(c, "limit", 50))
		if err != nil {
			logger.Error("latest dispatches failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch latest dispatches"})
			return
		}
		c.JSON(http.StatusOK, events)
	})

	r.GET("/stats", func(c *gin.Context) {
		stats, err := st.Stats(c.Request.Context(), c.Query("startDate"), c.Query("endDate"))
		if err != nil {
			logger.Error("stats failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	r.GET("/filters", func(c *gin.Context) {
		opts, err := st.FilterOptions(c.Request.Context())
		if err != nil {
			logger.Error("filter options failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch filter options"})
			return
		}
		c.JSON(http.StatusOK, opts)
	})
}

// intQuery coerces a query parameter to int, falling back on anything
// unparsable.
func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
