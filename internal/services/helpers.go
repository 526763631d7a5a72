package services

import (
	"encoding/json"
	"errors"

	"messaging_backend/internal/models"
	"messaging_backend/internal/models/chat"
	"messaging_backend/internal/repositories"
	"messaging_backend/internal/services/dto"
	"messaging_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// authorize runs the entity's access capability for the caller.
func authorize(entity models.Protected, id models.Identity, action models.Action) error {
	if !id.Authenticated() {
		return apperrors.ErrAuthenticationRequired
	}
	if !entity.IsAccessibleTo(id, action) {
		return apperrors.ErrPermissionDenied
	}
	return nil
}

// handleRepoError maps repository sentinels onto API errors.
func handleRepoError(err error) error {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, repositories.ErrMessageNotFound):
		return apperrors.ErrMessageNotFound.WithError(err)
	case errors.Is(err, repositories.ErrConversationNotFound):
		return apperrors.ErrConversationNotFound.WithError(err)
	case errors.Is(err, repositories.ErrNotificationNotFound):
		return apperrors.ErrNotificationNotFound.WithError(err)
	case errors.Is(err, repositories.ErrUserNotFound):
		return apperrors.ErrUserNotFound.WithError(err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.ErrNotFound(err)
	}
	return apperrors.InternalError(err)
}

func removeDuplicates(slice []string) []string {
	seen := make(map[string]struct{}, len(slice))
	result := make([]string, 0, len(slice))
	for _, item := range slice {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		result = append(result, item)
	}
	return result
}

func toPagination(p dto.PageRequest) repositories.Pagination {
	return repositories.Pagination{Page: p.Page, PageSize: p.PageSize}
}

// pageOf echoes the effective page back to the client.
func pageOf(p dto.PageRequest) (int, int) {
	page, size := p.Page, p.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return page, size
}

// ---------------- Mappers ----------------

func toUserResponse(u *models.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		IsStaff:   u.IsStaff,
		CreatedAt: u.CreatedAt,
	}
}

func toMessageResponse(m *chat.Message) *dto.MessageResponse {
	return &dto.MessageResponse{
		ID:             m.ID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		ConversationID: m.ConversationID,
		Content:        m.Content,
		Edited:         m.Edited,
		EditedByID:     m.EditedByID,
		EditedAt:       m.EditedAt,
		Read:           m.Read,
		ParentID:       m.ParentID,
		ThreadRootID:   m.ThreadRootID,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func toMessageResponses(messages []chat.Message) []*dto.MessageResponse {
	out := make([]*dto.MessageResponse, 0, len(messages))
	for i := range messages {
		out = append(out, toMessageResponse(&messages[i]))
	}
	return out
}

func toConversationResponse(c *chat.Conversation) *dto.ConversationResponse {
	participants := make([]dto.UserSummary, 0, len(c.Participants))
	for _, p := range c.Participants {
		participants = append(participants, dto.UserSummary{ID: p.ID, Username: p.Username})
	}
	return &dto.ConversationResponse{
		ID:           c.ID,
		Participants: participants,
		CreatedAt:    c.CreatedAt,
	}
}

func toHistoryResponse(h *chat.MessageHistory) *dto.HistoryResponse {
	return &dto.HistoryResponse{
		ID:         h.ID,
		MessageID:  h.MessageID,
		OldContent: h.OldContent,
		EditedAt:   h.EditedAt,
		EditedByID: h.EditedByID,
	}
}

func toNotificationResponse(n *models.Notification) *dto.NotificationResponse {
	resp := &dto.NotificationResponse{
		ID:        n.ID,
		UserID:    n.UserID,
		MessageID: n.MessageID,
		Type:      n.Type,
		Title:     n.Title,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
	if len(n.Data) > 0 {
		var data map[string]interface{}
		if err := json.Unmarshal(n.Data, &data); err == nil {
			resp.Data = data
		}
	}
	return resp
}
