package dto

import (
	"time"

	"messaging_backend/internal/models"
)

type UserResponse struct {
	ID        string          `json:"id"`
	Username  string          `json:"username"`
	Email     string          `json:"email"`
	FirstName string          `json:"first_name,omitempty"`
	LastName  string          `json:"last_name,omitempty"`
	Role      models.UserRole `json:"role"`
	IsStaff   bool            `json:"is_staff"`
	CreatedAt time.Time       `json:"created_at"`
}

// UserSummary is the public view of a participant.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type StatsResponse struct {
	Users          int64 `json:"users"`
	Conversations  int64 `json:"conversations"`
	Messages       int64 `json:"messages"`
	UnreadMessages int64 `json:"unread_messages"`
	Notifications  int64 `json:"notifications"`
	HistoryRows    int64 `json:"history_rows"`
}
