package handlers

import (
	"net/http"

	"messaging_backend/internal/middleware"
	"messaging_backend/internal/services"
	"messaging_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	*BaseHandler
	messageService services.MessageService
}

func NewMessageHandler(base *BaseHandler, messageService services.MessageService) *MessageHandler {
	return &MessageHandler{
		BaseHandler:    base,
		messageService: messageService,
	}
}

func (h *MessageHandler) RegisterRoutes(r *gin.RouterGroup) {
	messages := r.Group("/messages")
	messages.Use(middleware.RequireAuth())
	{
		messages.POST("", h.SendMessage)
		messages.GET("", h.ListMessages)
		messages.GET("/unread", h.Unread)
		messages.GET("/:messageId", h.GetMessage)
		messages.PUT("/:messageId", h.EditMessage)
		messages.PATCH("/:messageId", h.EditMessage)
		messages.DELETE("/:messageId", h.DeleteMessage)
		messages.POST("/:messageId/read", h.MarkRead)
		messages.GET("/:messageId/thread", h.GetThread)
		messages.GET("/:messageId/thread/tree", h.GetThreadTree)
		messages.GET("/:messageId/history", h.GetHistory)
	}
}

// SendMessage godoc
// @Summary      Send a direct message or a reply
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.SendMessageRequest true "Message"
// @Success      201 {object} dto.MessageResponse
// @Failure      400 {object} apperrors.ErrorResponse
// @Failure      403 {object} apperrors.ErrorResponse
// @Failure      429 {object} apperrors.ErrorResponse
// @Router       /api/messages [post]
func (h *MessageHandler) SendMessage(c *gin.Context) {
	id, ok := h.GetAndAuthorizeIdentity(c)
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	msg, err := h.messageService.SendMessage(c.Request.Context(), h.GetDB(c), id, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// ListMessages godoc
// @Summary      Messages the caller sent or received
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        search query string false "Match content or sender email"
// @Param        ordering query string false "sent_at or -sent_at (default)"
// @Param        conversation query string false "Conversation ID"
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.MessageListResponse
// @Failure      401 {object} apperrors.ErrorResponse
// @Router       /api/messages [get]
func (h *MessageHandler) ListMessages(c *gin.Context) {
	id, ok := h.GetAndAuthorizeIdentity(c)
	if !ok {
		return
	}

	criteria := dto.MessageCriteria{
		Search:         c.Query("search"),
		Ordering:       c.Query("ordering"),
		ConversationID: c.Query("conversation"),
		PageRequest:    ParsePagination(c),
	}

	list, err := h.messageService.ListMessages(h.GetDB(c), id, criteria)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Unread godoc
// @Summary      Unread messages addressed to the caller
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.UnreadMessageResponse
// @Router       /api/messages/unread [get]
func (h *MessageHandler) Unread(c *gin.Context) {
	id, ok := h.GetAndAuthorizeIdentity(c)
	if !ok {
		return
	}

	messages, err := h.messageService.UnreadFor(h.GetDB(c), id)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// GetMessage godoc
// @Summary      One message
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        messageId path string true "Message ID"
// @Success      200 {object} dto.MessageResponse
// @Failure      403 {object} apperrors.ErrorResponse
// @Failure      404 {object} apperrors.ErrorResponse
// @Router       /api/messages/{messageId} [get]
func (h *MessageHandler) GetMessage(c *gin.Context) {
	id, ok := h.GetAndAuthorizeIdentity(c)
	if !ok {
		return
	}

	msg, err := h.messageService.GetMessage(h.GetDB(c), id, c.Param("messageId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// EditMessage godoc
// @Summary      Edit a message; the previous content goes to its history
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        messageId path string true "Message ID"
// @Param        request body dto.EditMessageRequest true "New content"
// @Success      200 {object} dto.MessageResponse
// @Failure      403 {object} apperrors.ErrorResponse
// @Router       /api/messages/{messageId} [put]
// @Router       /api/messages/{messageId} [patch]
func (h *MessageHandler) EditMessage(c *gin.Context) {
	id, ok := h.GetAndAuthorizeIdentity(c)
	if !ok {
		return
	}

	var req dto.EditMessageRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	msg, err := h.messageService.EditMessage(c.Request.Context(), h.GetDB(c), id, c.Param("messageId"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// DeleteMessage godoc
// @Summary      Delete a message
// @Tags         messages
// @Security     BearerAuth
// @Param        messageId path string true "Message ID"
// @Success      204
// @Failure      403 {object} apperrors.ErrorResponse
// @Failure      404 {object} apperrors.ErrorResponse
// @Router       /api/messages/{messageId} [delete]
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	id, ok := h.GetAndAuthorizeIdentity(c)
	if !ok {
		return
	}

	if err := h.messageService.DeleteMessage(c.Request.Context(), h.GetDB(c), id, c.Param("messageId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkRead godoc
// @Summary      Mark a received message as read
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        messageId path string true "Message ID"
// @Success      200 {object} dto.MessageResponse
// @Failure      403 {object} apperrors.ErrorResponse
// @Failure      404 {object} apperrors.ErrorResponse
// @Router       /api/messages/{messageId}/read [post]
func (h *MessageHandler) MarkRead(c *gin.Context) {
	id, ok := h.GetAndAuthorizeIdentity(c)
	if !ok {
		return
	}

	msg, err := h.messageService.MarkRead(c.Request.Context(), h.GetDB(c), id, c.Param("messageId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// GetThread godoc
// @Summary      Every message of the thread the message belongs to, oldest first
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        messageId path string true "Any message of the thread"
// @Success      200 {object} dto.ThreadResponse
// @Router       /api/messages/{messageId}/thread [get]
func (h *MessageHandler) GetThread(c *gin.Context) {
	id, ok := h.GetAndAuthorizeIdentity(c)
	if !ok {
		return
	}

	thread, err := h.messageService.GetThread(h.GetDB(c), id, c.Param("messageId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, thread)
}

// GetThreadTree godoc
// @Summary      Thread as a reply tree
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        messageId path string true "Any message of the thread"
// @Success      200 {object} dto.ThreadTreeResponse
// @Failure      403 {object} apperrors.ErrorResponse
// @Failure      404 {object} apperrors.ErrorResponse
// @Router       /api/messages/{messageId}/thread/tree [get]
func (h *MessageHandler) GetThreadTree(c *gin.Context) {
	id, ok := h.GetAndAuthorizeIdentity(c)
	if !ok {
		return
	}

	tree, err := h.messageService.GetThreadTree(h.GetDB(c), id, c.Param("messageId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

// GetHistory godoc
// @Summary      Previous versions of an edited message
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        messageId path string true "Message ID"
// @Success      200 {object} dto.HistoryListResponse
// @Failure      403 {object} apperrors.ErrorResponse
// @Failure      404 {object} apperrors.ErrorResponse
// @Router       /api/messages/{messageId}/history [get]
func (h *MessageHandler) GetHistory(c *gin.Context) {
	id, ok := h.GetAndAuthorizeIdentity(c)
	if !ok {
		return
	}

	history, err := h.messageService.GetHistory(h.GetDB(c), id, c.Param("messageId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.HistoryListResponse{History: history})
}
