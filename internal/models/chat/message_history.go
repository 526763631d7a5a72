package chat

import (
	"time"

	"messaging_backend/internal/models"
)

// MessageHistory is an immutable snapshot of content replaced by an edit.
type MessageHistory struct {
	models.BaseModel
	MessageID  string    `gorm:"type:varchar(36);not null;index"`
	OldContent string    `gorm:"type:text;not null"`
	EditedAt   time.Time `gorm:"not null"`
	EditedByID *string   `gorm:"type:varchar(36)"`

	Message *Message `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE"`
}
