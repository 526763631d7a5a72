package handlers

import (
	"net/http"

	"messaging_backend/internal/middleware"
	"messaging_backend/internal/services"
	"messaging_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type ConversationHandler struct {
	*BaseHandler
	conversationService services.ConversationService
}

func NewConversationHandler(base *BaseHandler, conversationService services.ConversationService) *ConversationHandler {
	return &ConversationHandler{
		BaseHandler:         base,
		conversationService: conversationService,
	}
}

func (h *ConversationHandler) RegisterRoutes(r *gin.RouterGroup) {
	conversations := r.Group("/conversations")
	conversations.Use(middleware.RequireAuth())
	{
		conversations.POST("", h.CreateConversation)
		conversations.GET("", h.ListConversations)
		conversations.GET("/:conversationId", h.GetConversation)
		conversations.DELETE("/:conversationId", h.DeleteConversation)
		conversations.GET("/:conversationId/messages", h.ListMessages)
		conversations.POST("/:conversationId/messages", h.PostMessage)
	}
}

// CreateConversation godoc
// @Summary      Start a conversation
// @Tags         conversations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateConversationRequest true "Participants besides the caller"
// @Success      201 {object} dto.ConversationResponse
// @Failure      400 {object} apperrors.ErrorResponse
// @Router       /api/conversations [post]
func (h *ConversationHandler) CreateConversation(c *gin.Context) {
	id, ok := h.GetAndAuthorizeIdentity(c)
	if !ok {
		return
	}

	var req dto.CreateConversationRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	conversation, err := h.conversationService.CreateConversation(c.Request.Context(), h.GetDB(c), id, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conversation)
}

// ListConversations godoc
// @Summary      Conversations the caller takes part in
// @Tags         conversations
// @Produce      json
// @Security     BearerAuth
// @Param        search query string false "Match a participant's email"
// @Param        ordering query string false "created_at or -created_at (default)"
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.ConversationListResponse
// @Failure      401 {object} apperrors.ErrorResponse
// @Router       /api/conversations [get]
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	id, ok := h.GetAndAuthorizeIdentity(c)
	if !ok {
		return
	}

	criteria := dto.ConversationCriteria{
		Search:      c.Query("search"),
		Ordering:    c.Query("ordering"),
		PageRequest: ParsePagination(c),
	}

	list, err := h.conversationService.ListConversations(h.GetDB(c), id, criteria)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetConversation godoc
// @Summary      One conversation with its participants
// @Tags         conversations
// @Produce      json
// @Security     BearerAuth
// @Param        conversationId path string true "Conversation ID"
// @Success      200 {object} dto.ConversationResponse
// @Failure      403 {object} apperrors.ErrorResponse
// @Failure      404 {object} apperrors.ErrorResponse
// @Router       /api/conversations/{conversationId} [get]
func (h *ConversationHandler) GetConversation(c *gin.Context) {
	id, ok := h.GetAndAuthorizeIdentity(c)
	if !ok {
		return
	}

	conversation, err := h.conversationService.GetConversation(h.GetDB(c), id, c.Param("conversationId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, conversation)
}

// DeleteConversation godoc
// @Summary      Delete a conversation and its messages
// @Tags         conversations
// @Security     BearerAuth
// @Param        conversationId path string true "Conversation ID"
// @Success      204
// @Failure      403 {object} apperrors.ErrorResponse
// @Failure      404 {object} apperrors.ErrorResponse
// @Router       /api/conversations/{conversationId} [delete]
func (h *ConversationHandler) DeleteConversation(c *gin.Context) {
	id, ok := h.GetAndAuthorizeIdentity(c)
	if !ok {
		return
	}

	if err := h.conversationService.DeleteConversation(c.Request.Context(), h.GetDB(c), id, c.Param("conversationId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListMessages godoc
// @Summary      Messages of a conversation, newest first
// @Tags         conversations
// @Produce      json
// @Security     BearerAuth
// @Param        conversationId path string true "Conversation ID"
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.MessageListResponse
// @Failure      403 {object} apperrors.ErrorResponse
// @Failure      404 {object} apperrors.ErrorResponse
// @Router       /api/conversations/{conversationId}/messages [get]
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	id, ok := h.GetAndAuthorizeIdentity(c)
	if !ok {
		return
	}

	list, err := h.conversationService.ListConversationMessages(h.GetDB(c), id, c.Param("conversationId"), ParsePagination(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// PostMessage godoc
// @Summary      Send a message inside a conversation
// @Tags         conversations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        conversationId path string true "Conversation ID"
// @Param        request body dto.SendMessageRequest true "Message"
// @Success      201 {object} dto.MessageResponse
// @Failure      400 {object} apperrors.ErrorResponse
// @Failure      429 {object} apperrors.ErrorResponse
// @Router       /api/conversations/{conversationId}/messages [post]
func (h *ConversationHandler) PostMessage(c *gin.Context) {
	id, ok := h.GetAndAuthorizeIdentity(c)
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	msg, err := h.conversationService.PostConversationMessage(c.Request.Context(), h.GetDB(c), id, c.Param("conversationId"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
