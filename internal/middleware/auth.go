package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jucity/ai-manager-backend/internal/logger"
)

// AdminAuthMiddleware gates the admin surface behind a static API key
// carried in the X-Admin-Api-Key header.
type AdminAuthMiddleware struct {
	log    *logger.Logger
	apiKey string
}

func NewAdminAuthMiddleware(log *logger.Logger, apiKey string) *AdminAuthMiddleware {
	middlewareLogger := log.With("Middleware", "AdminAuthMiddleware")
	return &AdminAuthMiddleware{log: middlewareLogger, apiKey: apiKey}
}

func (am *AdminAuthMiddleware) RequireAdminKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if am.apiKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "admin API is not configured"})
			return
		}
		provided := strings.TrimSpace(c.GetHeader("X-Admin-Api-Key"))
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(am.apiKey)) != 1 {
			am.log.Warn("Rejected admin request with invalid API key", "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid admin API key"})
			return
		}
		c.Next()
	}
}
