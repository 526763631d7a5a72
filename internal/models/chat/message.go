package chat

import (
	"time"

	"messaging_backend/internal/models"
)

type Message struct {
	models.BaseModel
	SenderID       string  `gorm:"type:varchar(36);not null;index"`
	ReceiverID     string  `gorm:"type:varchar(36);not null;index"`
	ConversationID *string `gorm:"type:varchar(36);index"`
	Content        string  `gorm:"type:text;not null"`
	Edited         bool    `gorm:"default:false"`
	EditedByID     *string `gorm:"type:varchar(36)"`
	EditedAt       *time.Time
	Read           bool `gorm:"column:is_read;default:false;index"`

	// Thread links are plain IDs, never object references.
	ParentID     *string `gorm:"type:varchar(36);index"`
	ThreadRootID *string `gorm:"type:varchar(36);index"`

	Sender       *models.User  `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE"`
	Receiver     *models.User  `gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE"`
	Conversation *Conversation `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
}

// RootID returns the thread root, or the message itself when it has none.
func (m *Message) RootID() string {
	if m.ThreadRootID != nil && *m.ThreadRootID != "" {
		return *m.ThreadRootID
	}
	return m.ID
}

func (m *Message) IsAccessibleTo(id models.Identity, action models.Action) bool {
	if !id.Authenticated() {
		return false
	}
	switch action {
	case models.ActionRead:
		if m.SenderID == id.UserID || m.ReceiverID == id.UserID {
			return true
		}
		return m.Conversation != nil && m.Conversation.HasParticipant(id.UserID)
	case models.ActionWrite, models.ActionDelete:
		return m.SenderID == id.UserID
	case models.ActionAcknowledge:
		return m.ReceiverID == id.UserID
	}
	return false
}
