package apperrors

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error *AppError `json:"error"`
}

// GinErrorHandler renders errors as ErrorResponse.
type GinErrorHandler struct {
	Debug bool
}

func (h *GinErrorHandler) HandleGinError(c *gin.Context, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		appErr = InternalError(err)
	}

	if appErr.HTTPCode >= 500 {
		slog.Error("server error", "error", appErr.Unwrap(), "path", c.Request.URL.Path)
		if !h.Debug {
			appErr = appErr.WithDetails(nil)
		}
	}

	c.AbortWithStatusJSON(appErr.HTTPCode, ErrorResponse{Error: appErr})
}

var defaultHandler = &GinErrorHandler{}

// SetDebug toggles details on 5xx responses. Called once at startup.
func SetDebug(debug bool) {
	defaultHandler = &GinErrorHandler{Debug: debug}
}

func HandleError(c *gin.Context, err error) {
	defaultHandler.HandleGinError(c, err)
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
