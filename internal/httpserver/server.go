package httpserver

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wnelson/dispatch-monitor/internal/auth"
	"github.com/wnelson/dispatch-monitor/internal/config"
	"github.com/wnelson/dispatch-monitor/internal/handlers"
	"github.com/wnelson/dispatch-monitor/internal/presence"
	"github.com/wnelson/dispatch-monitor/internal/store"
)

// NewRouter assembles the API under /api: public dispatch reads, presence
// heartbeats, health, and the key-guarded ingest trigger.
func NewRouter(cfg *config.Config, st *store.Store, tracker *presence.Tracker, runner handlers.IngestRunner, logger *zap.Logger) *gin.Engine {
	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(requestLogger(logger))
	r.Use(cors.New(corsConfig(cfg.Origins())))

	api := r.Group("/api")

	handlers.RegisterHealthRoutes(api, st)
	handlers.RegisterDispatchRoutes(api, st, logger)
	handlers.RegisterPresenceRoutes(api, tracker)

	if runner != nil && len(cfg.IngestAPIKeys) > 0 {
		guarded := r.Group("/api")
		guarded.Use(auth.APIKeyMiddleware(cfg.IngestAPIKeys))
		handlers.RegisterIngestRoutes(guarded, runner, logger)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	if len(origins) == 1 && origins[0] == "*" {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	c.AllowHeaders = append(c.AllowHeaders, "X-API-Key")
	return c
}

// requestID attaches a generated ID to each request for log correlation.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

// requestLogger logs one line per request.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", c.GetString("request_id")),
			zap.String("remote_addr", c.ClientIP()),
		)
	}
}
