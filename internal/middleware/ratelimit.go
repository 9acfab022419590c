package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/issuetracker/internal/limiter"
	"github.com/xxxsen/issuetracker/internal/pkg/response"
)

// RateLimit rejects a second request from the same client to the same route
// while the limiter window is still open.
func RateLimit(l limiter.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		ip := c.ClientIP()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		key := strings.Join([]string{ip, path}, "|")
		logger := logutil.GetLogger(c.Request.Context())
		ok, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			// fail open
			logger.Error("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			logger.Warn("rate limit hit",
				zap.String("ip", ip),
				zap.String("path", path),
			)
			response.Abort(c, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))
			return
		}
		c.Next()
	}
}
