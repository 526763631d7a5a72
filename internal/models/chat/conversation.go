package chat

import "messaging_backend/internal/models"

type Conversation struct {
	models.BaseModel
	Participants []models.User `gorm:"many2many:conversation_participants;constraint:OnDelete:CASCADE"`
}

func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// IsAccessibleTo allows every action to participants only.
// Participants must be preloaded.
func (c *Conversation) IsAccessibleTo(id models.Identity, _ models.Action) bool {
	return id.Authenticated() && c.HasParticipant(id.UserID)
}
