package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"user-management-svc/internal/cache"
	"user-management-svc/pkg/logger"
	"user-management-svc/pkg/security"
	"user-management-svc/pkg/utils"
)

// Context keys set by AuthMiddleware
const (
	UserIDKey = "user_id"
	ClaimsKey = "claims"
)

// AuthMiddleware verifies the session token from the cookie or the bearer header
func AuthMiddleware(tokens *security.TokenManager, blacklist cache.TokenBlacklist, cookieName string, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ExtractToken(c, cookieName)
		if tokenString == "" {
			utils.UnauthorizedResponse(c, "Missing authentication token")
			c.Abort()
			return
		}

		claims, err := tokens.Validate(tokenString)
		if err != nil {
			utils.UnauthorizedResponse(c, "Invalid or expired token")
			c.Abort()
			return
		}

		revoked, err := blacklist.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			log.WithError(err).WithField("trace_id", c.GetString(TraceIDKey)).Error("Failed to check token revocation")
			utils.InternalServerErrorResponse(c, "Failed to verify token", nil)
			c.Abort()
			return
		}
		if revoked {
			utils.UnauthorizedResponse(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// ExtractToken returns the bearer token, falling back to the session cookie
func ExtractToken(c *gin.Context, cookieName string) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie
	}
	return ""
}
