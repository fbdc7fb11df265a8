package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// callerCtxKey is the Gin context key holding the authenticated caller name.
const callerCtxKey = "api_caller"

// APIKeyMiddleware guards operational endpoints (the ingest trigger) by
// mapping X-API-Key → caller name. An empty key map rejects everything,
// which effectively disables the guarded routes.
func APIKeyMiddleware(keys map[string]string) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := strings.TrimSpace(c.GetHeader("X-API-Key"))
		caller, ok := keys[apiKey]
		if apiKey == "" || !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(callerCtxKey, caller)
		c.Next()
	}
}

// Caller returns the authenticated caller name from the request context.
func Caller(c *gin.Context) string {
	v, _ := c.Get(callerCtxKey)
	s, _ := v.(string)
	return s
}
