package chat

import (
	"testing"

	"messaging_backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func identity(id string) models.Identity {
	return models.Identity{UserID: id, Role: models.UserRoleGuest}
}

func TestMessage_IsAccessibleTo(t *testing.T) {
	msg := &Message{SenderID: "alice", ReceiverID: "bob"}

	tests := []struct {
		name   string
		who    models.Identity
		action models.Action
		want   bool
	}{
		{"sender reads", identity("alice"), models.ActionRead, true},
		{"receiver reads", identity("bob"), models.ActionRead, true},
		{"stranger reads", identity("carol"), models.ActionRead, false},
		{"anonymous reads", models.Identity{}, models.ActionRead, false},
		{"sender edits", identity("alice"), models.ActionWrite, true},
		{"receiver edits", identity("bob"), models.ActionWrite, false},
		{"sender deletes", identity("alice"), models.ActionDelete, true},
		{"receiver deletes", identity("bob"), models.ActionDelete, false},
		{"receiver acknowledges", identity("bob"), models.ActionAcknowledge, true},
		{"sender acknowledges", identity("alice"), models.ActionAcknowledge, false},
		{"unknown action", identity("alice"), models.Action("share"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, msg.IsAccessibleTo(tt.who, tt.action))
		})
	}
}

func TestMessage_ReadableByConversationParticipant(t *testing.T) {
	conv := &Conversation{Participants: []models.User{
		{BaseModel: models.BaseModel{ID: "alice"}},
		{BaseModel: models.BaseModel{ID: "bob"}},
		{BaseModel: models.BaseModel{ID: "carol"}},
	}}
	msg := &Message{SenderID: "alice", ReceiverID: "bob", Conversation: conv}

	assert.True(t, msg.IsAccessibleTo(identity("carol"), models.ActionRead))
	assert.False(t, msg.IsAccessibleTo(identity("carol"), models.ActionWrite))
	assert.False(t, msg.IsAccessibleTo(identity("dave"), models.ActionRead))
}

func TestConversation_IsAccessibleTo(t *testing.T) {
	conv := &Conversation{Participants: []models.User{{BaseModel: models.BaseModel{ID: "alice"}}}}

	for _, action := range []models.Action{models.ActionRead, models.ActionWrite, models.ActionDelete} {
		assert.True(t, conv.IsAccessibleTo(identity("alice"), action))
		assert.False(t, conv.IsAccessibleTo(identity("bob"), action))
	}
	assert.False(t, conv.IsAccessibleTo(models.Identity{}, models.ActionRead))
}

func TestMessage_RootID(t *testing.T) {
	root := "root-1"
	assert.Equal(t, "m-1", (&Message{BaseModel: models.BaseModel{ID: "m-1"}}).RootID())
	assert.Equal(t, root, (&Message{BaseModel: models.BaseModel{ID: "m-2"}, ThreadRootID: &root}).RootID())
}
