package handlers

import (
	"net/http"

	"messaging_backend/internal/middleware"
	"messaging_backend/internal/services"
	"messaging_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	*BaseHandler
	notificationService services.NotificationService
}

func NewNotificationHandler(base *BaseHandler, notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler:         base,
		notificationService: notificationService,
	}
}

func (h *NotificationHandler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	notifications.Use(middleware.RequireAuth())
	{
		notifications.GET("", h.GetUserNotifications)
		notifications.GET("/unread-count", h.GetUnreadCount)
		notifications.POST("/read-all", h.MarkAllAsRead)
		notifications.POST("/:notificationId/read", h.MarkAsRead)
	}
}

// GetUserNotifications godoc
// @Summary      The caller's notifications, newest first
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        unread_only query bool false "Only unread"
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.NotificationListResponse
// @Router       /api/notifications [get]
func (h *NotificationHandler) GetUserNotifications(c *gin.Context) {
	id, ok := h.GetAndAuthorizeIdentity(c)
	if !ok {
		return
	}

	criteria := dto.NotificationCriteria{
		UnreadOnly:  ParseQueryBool(c, "unread_only"),
		PageRequest: ParsePagination(c),
	}

	response, err := h.notificationService.GetUserNotifications(h.GetDB(c), id, criteria)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// GetUnreadCount godoc
// @Summary      Number of unread notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.UnreadCountResponse
// @Router       /api/notifications/unread-count [get]
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	id, ok := h.GetAndAuthorizeIdentity(c)
	if !ok {
		return
	}

	count, err := h.notificationService.GetUnreadCount(h.GetDB(c), id)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UnreadCountResponse{Count: count})
}

// MarkAsRead godoc
// @Summary      Mark one notification as read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        notificationId path string true "Notification ID"
// @Success      200 {object} dto.NotificationResponse
// @Failure      403 {object} apperrors.ErrorResponse
// @Failure      404 {object} apperrors.ErrorResponse
// @Router       /api/notifications/{notificationId}/read [post]
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	id, ok := h.GetAndAuthorizeIdentity(c)
	if !ok {
		return
	}

	notification, err := h.notificationService.MarkAsRead(h.GetDB(c), id, c.Param("notificationId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, notification)
}

// MarkAllAsRead godoc
// @Summary      Mark every notification as read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.MessageOnlyResponse
// @Router       /api/notifications/read-all [post]
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	id, ok := h.GetAndAuthorizeIdentity(c)
	if !ok {
		return
	}

	if err := h.notificationService.MarkAllAsRead(h.GetDB(c), id); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageOnlyResponse{Message: "All notifications marked as read"})
}
