package middleware

import (
	"context"
	"strings"

	"messaging_backend/internal/auth"
	"messaging_backend/internal/logger"
	"messaging_backend/internal/models"
	"messaging_backend/pkg/apperrors"
	"messaging_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
)

// resolvedKey marks that the bearer token was already looked at, so the
// token is verified at most once per request.
const resolvedKey = "identity_resolved"

// identify decodes the bearer token once and attaches the identity.
// Invalid or missing tokens leave the request anonymous.
func identify(c *gin.Context, verifier auth.TokenVerifier) models.Identity {
	if _, done := c.Get(resolvedKey); done {
		return GetIdentity(c)
	}
	c.Set(resolvedKey, true)

	if verifier == nil {
		return models.Identity{}
	}
	token, ok := bearerToken(c.GetHeader("Authorization"))
	if !ok {
		return models.Identity{}
	}
	id, err := verifier.Verify(token)
	if err != nil {
		logger.CtxDebug(c.Request.Context(), "bearer token rejected", "error", err)
		return models.Identity{}
	}
	SetIdentity(c, id)
	return id
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// SetIdentity attaches id to the gin context and to the request context, so
// the handlers and the structured logger both see it.
func SetIdentity(c *gin.Context, id models.Identity) {
	c.Set(string(contextkeys.IdentityContextKey), id)
	ctx := context.WithValue(c.Request.Context(), contextkeys.IdentityContextKey, id)
	ctx = logger.WithUserID(ctx, id.UserID)
	c.Request = c.Request.WithContext(ctx)
}

// GetIdentity returns the caller, or the anonymous zero value.
func GetIdentity(c *gin.Context) models.Identity {
	if v, ok := c.Get(string(contextkeys.IdentityContextKey)); ok {
		if id, ok := v.(models.Identity); ok {
			return id
		}
	}
	return models.Identity{}
}

func GetUserID(c *gin.Context) string {
	return GetIdentity(c).UserID
}

// RequireAuth rejects anonymous callers with 401.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetIdentity(c).Authenticated() {
			apperrors.HandleError(c, apperrors.ErrAuthenticationRequired)
			return
		}
		c.Next()
	}
}
