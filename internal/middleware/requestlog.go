package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/labwatch/labwatch-api/internal/models"
	"github.com/labwatch/labwatch-api/internal/service"
)

// RequestLog records one log entry per authenticated request passing
// through the tagged route. The entry is written after the response, so a
// storage hiccup can never fail the request itself.
func RequestLog(logs *service.LogService, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		claimsValue, ok := c.Get(ContextUserKey)
		if !ok {
			return
		}
		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok {
			return
		}

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}
		status := c.Writer.Status()

		_ = logs.Record(c.Request.Context(), &models.Log{
			RequestMethod:      c.Request.Method,
			RequestEndpoint:    endpoint,
			ResponseStatusCode: strconv.Itoa(status),
			ResponseMessage:    http.StatusText(status),
			ResponseTimeMs:     time.Since(start).Milliseconds(),
			Action:             action,
			UserID:             claims.UserID,
			Labnumber:          c.QueryArray("labnumber"),
		})
	}
}
