package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/labwatch/labwatch-api/internal/service"
	appErrors "github.com/labwatch/labwatch-api/pkg/errors"
	"github.com/labwatch/labwatch-api/pkg/response"
)

// ContextUserKey is the gin context key storing verified session claims.
const ContextUserKey = "currentUser"

// Auth protects routes by requiring a valid session token. The token is
// read from the session cookie; a Bearer header is accepted as a fallback
// for non-browser clients.
func Auth(authService *service.AuthService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c, cookieName)
		if token == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "no token, authorization denied"))
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}

	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
