package handlers

import (
	"fmt"
	"strconv"

	"messaging_backend/internal/logger"
	"messaging_backend/internal/middleware"
	"messaging_backend/internal/models"
	"messaging_backend/internal/services/dto"
	"messaging_backend/internal/validator"
	"messaging_backend/pkg/apperrors"
	"messaging_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type BaseHandler struct {
	validator *validator.Validator
}

func NewBaseHandler(v *validator.Validator) *BaseHandler {
	return &BaseHandler{validator: v}
}

// GetDB returns the *gorm.DB that DBMiddleware put on the context.
func (h *BaseHandler) GetDB(c *gin.Context) *gorm.DB {
	dbKey := string(contextkeys.DBContextKey)

	val, ok := c.Get(dbKey)
	if !ok {
		logger.CtxError(c.Request.Context(), "critical error: db key not found in context", "key", dbKey)
		panic("critical error: DBMiddleware did not set the db key")
	}

	db, ok := val.(*gorm.DB)
	if !ok {
		logger.CtxError(c.Request.Context(), "critical error: db in context is not *gorm.DB", "key", dbKey, "type", fmt.Sprintf("%T", val))
		panic("critical error: db in context has incorrect type")
	}
	return db
}

func (h *BaseHandler) BindAndValidate_JSON(c *gin.Context, obj interface{}) bool {
	ctx := c.Request.Context()

	if err := c.ShouldBindJSON(obj); err != nil {
		logger.CtxWithError(ctx, "Failed to bind JSON body", err, "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid request body: "+err.Error()))
		return false
	}

	if err := h.validator.Validate(obj); err != nil {
		if vErr, ok := err.(*validator.ValidationError); ok {
			logger.CtxWarn(ctx, "Validation failed", "errors", vErr.Errors, "path", c.Request.URL.Path)
			apperrors.HandleError(c, apperrors.ValidationError(vErr.Errors))
		} else {
			logger.CtxWithError(ctx, "Internal validator error", err, "path", c.Request.URL.Path)
			apperrors.HandleError(c, apperrors.InternalError(err))
		}
		return false
	}
	return true
}

func (h *BaseHandler) HandleServiceError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		logger.CtxWarn(ctx, "Service error",
			"error", appErr.Message,
			"details", appErr.Details,
			"path", c.Request.URL.Path,
		)
		apperrors.HandleError(c, appErr)
		return
	}
	logger.CtxWithError(ctx, "Internal server error", err, "path", c.Request.URL.Path)
	apperrors.HandleError(c, apperrors.InternalError(err))
}

// GetAndAuthorizeIdentity returns the caller or writes a 401.
func (h *BaseHandler) GetAndAuthorizeIdentity(c *gin.Context) (models.Identity, bool) {
	id := middleware.GetIdentity(c)
	if !id.Authenticated() {
		logger.CtxWarn(c.Request.Context(), "Unauthorized access: no identity in context",
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
		)
		apperrors.HandleError(c, apperrors.ErrAuthenticationRequired)
		return models.Identity{}, false
	}
	return id, true
}

func ParseQueryInt(c *gin.Context, key string, defaultValue int) int {
	valueStr := c.Query(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func ParseQueryBool(c *gin.Context, key string) bool {
	value, err := strconv.ParseBool(c.Query(key))
	return err == nil && value
}

func ParsePagination(c *gin.Context) dto.PageRequest {
	const defaultPage = 1
	const defaultPageSize = 20
	const maxPageSize = 100

	page := ParseQueryInt(c, "page", defaultPage)
	if page <= 0 {
		page = defaultPage
	}

	pageSize := ParseQueryInt(c, "page_size", defaultPageSize)
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	return dto.PageRequest{Page: page, PageSize: pageSize}
}
