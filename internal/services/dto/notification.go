package dto

import "time"

type NotificationCriteria struct {
	UnreadOnly bool
	PageRequest
}

type NotificationResponse struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id"`
	MessageID *string                `json:"message_id,omitempty"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Data      map[string]interface{} `json:"data,omitempty"`
	IsRead    bool                   `json:"is_read"`
	ReadAt    *time.Time             `json:"read_at,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

type NotificationListResponse struct {
	Notifications []*NotificationResponse `json:"notifications"`
	ListMeta
}

type UnreadCountResponse struct {
	Count int64 `json:"count"`
}
