package middleware

import (
	"messaging_backend/internal/auth"
	"messaging_backend/internal/metrics"
	"messaging_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type RoleAuthorizerConfig struct {
	Verifier auth.TokenVerifier
	Prefixes []string
	Allowed  auth.RoleSet
}

// RoleAuthorizer attaches the bearer identity to every request and guards
// the protected prefixes: anonymous is 401, staff or an allowed role passes,
// anyone else is 403.
func RoleAuthorizer(cfg RoleAuthorizerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := identify(c, cfg.Verifier)

		if !governed(c.Request.URL.Path, cfg.Prefixes) {
			c.Next()
			return
		}
		if !id.Authenticated() {
			metrics.PipelineBlocked.WithLabelValues("role_authorizer").Inc()
			apperrors.HandleError(c, apperrors.ErrAuthenticationRequired)
			return
		}
		if !auth.IsElevated(id, cfg.Allowed) {
			metrics.PipelineBlocked.WithLabelValues("role_authorizer").Inc()
			apperrors.HandleError(c, apperrors.ErrPermissionDenied)
			return
		}
		c.Next()
	}
}
