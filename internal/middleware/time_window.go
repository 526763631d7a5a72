package middleware

import (
	"messaging_backend/internal/auth"
	"messaging_backend/internal/logger"
	"messaging_backend/internal/metrics"
	"messaging_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type TimeWindowConfig struct {
	StartHour int // inclusive
	EndHour   int // exclusive
	Prefixes  []string
	// Verifier resolves the caller for the BLOCK line; nil logs Anonymous.
	Verifier auth.TokenVerifier
	Sink     logger.RequestLog
	Now      Clock
}

// TimeWindowGate rejects governed paths outside [StartHour, EndHour) of the
// clock's local hour with 403.
func TimeWindowGate(cfg TimeWindowConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if !governed(path, cfg.Prefixes) {
			c.Next()
			return
		}

		now := cfg.Now()
		hour := now.Hour()
		if hour >= cfg.StartHour && hour < cfg.EndHour {
			c.Next()
			return
		}

		id := identify(c, cfg.Verifier)
		if cfg.Sink != nil {
			cfg.Sink.Blocked(now, id.UserID, path)
		}
		metrics.PipelineBlocked.WithLabelValues("time_window").Inc()
		logger.CtxInfo(c.Request.Context(), "request outside allowed hours", "path", path, "hour", hour)
		apperrors.HandleError(c, apperrors.ErrOutsideAllowedHours)
	}
}
