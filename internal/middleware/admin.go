package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/labwatch/labwatch-api/internal/models"
	appErrors "github.com/labwatch/labwatch-api/pkg/errors"
	"github.com/labwatch/labwatch-api/pkg/response"
)

// RequireAdmin gates a route to admin-level callers. This check never
// touches storage: it runs entirely on verified claims, so forbidden
// callers leak no data.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok || claims.Level != models.LevelAdmin {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "access denied, admin only"))
			c.Abort()
			return
		}

		c.Next()
	}
}
