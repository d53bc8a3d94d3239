package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"swap-backend/internal/handlers"
	"swap-backend/internal/types"
)

// AdminAuthMiddleware resolves the caller's origin from the admin JWT
type AdminAuthMiddleware struct {
	jwtSecret []byte
	logger    *logrus.Logger
}

// NewAdminAuthMiddleware creates the admin auth middleware
func NewAdminAuthMiddleware(jwtSecret string, logger *logrus.Logger) *AdminAuthMiddleware {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AdminAuthMiddleware{jwtSecret: []byte(jwtSecret), logger: logger}
}

// ResolveOrigin stores a types.Origin on the context. Requests without a
// token continue unprivileged and the service decides; a token that is
// present but invalid is rejected here.
func (a *AdminAuthMiddleware) ResolveOrigin() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Set(handlers.OriginContextKey, types.UnprivilegedOrigin())
			c.Next()
			return
		}

		fields := logrus.Fields{
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			a.logger.WithFields(fields).Warn("Admin auth failed - invalid Authorization format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Invalid authorization format, need Bearer token",
				"code":    "INVALID_AUTH_FORMAT",
			})
			return
		}

		claims, err := handlers.ValidateAdminJWTToken(a.jwtSecret, strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			a.logger.WithFields(fields).WithError(err).Warn("Admin auth failed - invalid token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Invalid or expired token",
				"code":    "INVALID_TOKEN",
			})
			return
		}

		origin := types.Origin{Kind: types.OriginSigned, Subject: claims.Username}
		if claims.Role == handlers.AdminRole {
			origin = types.PrivilegedOrigin(claims.Username)
		}
		c.Set(handlers.OriginContextKey, origin)
		c.Set("admin_username", claims.Username)
		c.Set("admin_role", claims.Role)
		c.Next()
	}
}
