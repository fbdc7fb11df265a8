package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wnelson/dispatch-monitor/internal/auth"
	"github.com/wnelson/dispatch-monitor/internal/models"
)

// IngestRunner triggers one ingestion pass.
type IngestRunner interface {
	Run(ctx context.Context) (models.IngestSummary, error)
}

// RegisterIngestRoutes registers POST /ingest/run behind the API-key guard.
// Ingestion normally runs from cmd/ingester; this endpoint exists for
// operators who want a pass right now.
func RegisterIngestRoutes(r gin.IRoutes, runner IngestRunner, logger *zap.Logger) {
	r.POST("/ingest/run", func(c *gin.Context) {
		sum, err := runner.Run(c.Request.Context())
		if err != nil {
			logger.Error("manual ingestion failed",
				zap.String("caller", auth.Caller(c)),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ingestion failed", "summary": sum})
			return
		}
		logger.Info("manual ingestion triggered", zap.String("caller", auth.Caller(c)))
		c.JSON(http.StatusOK, sum)
	})
}
