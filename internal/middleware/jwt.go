package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/issuetracker/internal/pkg/jwt"
	"github.com/xxxsen/issuetracker/internal/pkg/response"
)

const (
	ContextUserIDKey = "user_id"
	ContextClaimsKey = "session_claims"
)

// Auth lets a request through only with a valid session token. The claims
// are stored on the context for the handlers behind it.
func Auth(tokens *jwt.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "missing authorization token")
			return
		}
		claims, err := tokens.ParseSession(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextClaimsKey, claims)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if token := c.GetHeader("authToken"); token != "" {
		return strings.TrimSpace(token)
	}
	return strings.TrimSpace(c.Query("authToken"))
}

// ClaimsFrom returns the session claims set by Auth.
func ClaimsFrom(c *gin.Context) (*jwt.SessionClaims, bool) {
	v, ok := c.Get(ContextClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*jwt.SessionClaims)
	return claims, ok && claims != nil
}
