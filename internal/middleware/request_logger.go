package middleware

import (
	"messaging_backend/internal/logger"

	"github.com/gin-gonic/gin"
)

// RequestLogger writes one sink line per request once the chain has
// returned, so an identity attached further in is recorded. It never blocks.
func RequestLogger(sink logger.RequestLog, now Clock) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		c.Next()
		if sink != nil {
			sink.Request(now(), GetUserID(c), path)
		}
	}
}
