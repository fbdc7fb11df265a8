package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wnelson/dispatch-monitor/internal/models"
)

// Presence is the tracker surface the presence routes need.
type Presence interface {
	Heartbeat(sessionID string, authenticated bool, userID *int64) models.ActiveUsers
	Leave(sessionID string)
	ActiveUsers() models.ActiveUsers
}

// RegisterPresenceRoutes registers the heartbeat endpoints.
//
// POST /heartbeat    — insert/refresh a session, returns current counts
// POST /leaving      — fire-and-forget page-unload beacon
// GET  /active-users — read-only counts
func RegisterPresenceRoutes(r gin.IRoutes, tracker Presence) {
	r.POST("/heartbeat", func(c *gin.Context) {
		var req models.HeartbeatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}
		if req.SessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId is required"})
			return
		}

		counts := tracker.Heartbeat(req.SessionID, req.IsAuthenticated, req.UserID)
		c.JSON(http.StatusOK, models.HeartbeatResponse{
			Success:     true,
			ActiveUsers: counts,
		})
	})

	r.POST("/leaving", func(c *gin.Context) {
		var req models.LeaveRequest
		// Beacons get no error feedback; the sweep is the eviction authority
		// either way.
		if err := c.ShouldBindJSON(&req); err == nil && req.SessionID != "" {
			tracker.Leave(req.SessionID)
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	r.GET("/active-users", func(c *gin.Context) {
		c.JSON(http.StatusOK, tracker.ActiveUsers())
	})
}
