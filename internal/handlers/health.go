package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger validates connectivity to the datastore.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RegisterHealthRoutes registers GET /health: process liveness plus a
// short-deadline database ping.
func RegisterHealthRoutes(r gin.IRoutes, db Pinger) {
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "degraded",
				"database": "unreachable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"database": "connected",
		})
	})
}
