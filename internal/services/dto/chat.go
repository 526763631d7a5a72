package dto

import "time"

// ---------------- Requests ----------------

type CreateConversationRequest struct {
	// The caller is always added; the list may be empty.
	ParticipantIDs []string `json:"participant_ids" validate:"omitempty,dive,required"`
}

type SendMessageRequest struct {
	ReceiverID     string  `json:"receiver_id" validate:"required"`
	ConversationID *string `json:"conversation_id,omitempty"`
	ParentID       *string `json:"parent_id,omitempty"`
	Content        string  `json:"content" validate:"required,not-blank,max=5000"`
}

type EditMessageRequest struct {
	Content string `json:"content" validate:"required,not-blank,max=5000"`
}

// ---------------- Responses ----------------

type ConversationResponse struct {
	ID           string        `json:"id"`
	Participants []UserSummary `json:"participants"`
	CreatedAt    time.Time     `json:"created_at"`
}

type ConversationListResponse struct {
	Conversations []*ConversationResponse `json:"conversations"`
	ListMeta
}

type MessageResponse struct {
	ID             string     `json:"id"`
	SenderID       string     `json:"sender_id"`
	ReceiverID     string     `json:"receiver_id"`
	ConversationID *string    `json:"conversation_id,omitempty"`
	Content        string     `json:"content"`
	Edited         bool       `json:"edited"`
	EditedByID     *string    `json:"edited_by_id,omitempty"`
	EditedAt       *time.Time `json:"edited_at,omitempty"`
	Read           bool       `json:"read"`
	ParentID       *string    `json:"parent_id,omitempty"`
	ThreadRootID   *string    `json:"thread_root_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type MessageListResponse struct {
	Messages []*MessageResponse `json:"messages"`
	ListMeta
}

// UnreadMessageResponse carries only the projected columns.
type UnreadMessageResponse struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	ParentID   *string   `json:"parent_id,omitempty"`
}

type ThreadResponse struct {
	RootID   string             `json:"root_id"`
	Messages []*MessageResponse `json:"messages"`
}

type ThreadNodeResponse struct {
	MessageResponse
	Replies []*ThreadNodeResponse `json:"replies"`
}

type ThreadTreeResponse struct {
	RootID string                `json:"root_id"`
	Roots  []*ThreadNodeResponse `json:"roots"`
}

type HistoryListResponse struct {
	History []*HistoryResponse `json:"history"`
}

type HistoryResponse struct {
	ID         string    `json:"id"`
	MessageID  string    `json:"message_id"`
	OldContent string    `json:"old_content"`
	EditedAt   time.Time `json:"edited_at"`
	EditedByID *string   `json:"edited_by_id,omitempty"`
}

// MessageCriteria narrows the caller's message list.
type MessageCriteria struct {
	Search         string
	Ordering       string
	ConversationID string
	PageRequest
}

// ConversationCriteria narrows the caller's conversation list.
type ConversationCriteria struct {
	Search   string
	Ordering string
	PageRequest
}
