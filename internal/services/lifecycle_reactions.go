package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"messaging_backend/internal/events"
	"messaging_backend/internal/models"
	"messaging_backend/internal/models/chat"
	"messaging_backend/internal/repositories"

	"gorm.io/datatypes"
)

const (
	ReactionNotifyOnCreate     = "notify-on-create"
	ReactionCaptureEditHistory = "capture-edit-history"
	ReactionCascadeUserCleanup = "cascade-user-cleanup"

	previewLength = 100
)

// LifecycleReactions holds the side effects of message and user lifecycle
// events. Every reaction writes through the publishing transaction.
type LifecycleReactions struct {
	chatRepo         repositories.ChatRepository
	notificationRepo repositories.NotificationRepository
	now              func() time.Time
}

func NewLifecycleReactions(
	chatRepo repositories.ChatRepository,
	notificationRepo repositories.NotificationRepository,
) *LifecycleReactions {
	return &LifecycleReactions{
		chatRepo:         chatRepo,
		notificationRepo: notificationRepo,
		now:              time.Now,
	}
}

// Register subscribes the reactions on bus.
func (r *LifecycleReactions) Register(bus *events.Bus) {
	bus.Subscribe(events.AfterCreate, events.EntityMessage, ReactionNotifyOnCreate, r.NotifyOnCreate)
	bus.Subscribe(events.BeforeSave, events.EntityMessage, ReactionCaptureEditHistory, r.CaptureEditHistory)
	bus.Subscribe(events.AfterDelete, events.EntityUser, ReactionCascadeUserCleanup, r.CascadeUserCleanup)
}

// NotifyOnCreate inserts one unread notification for the receiver.
func (r *LifecycleReactions) NotifyOnCreate(_ context.Context, ev events.Event) error {
	msg, ok := ev.Payload.(*chat.Message)
	if !ok {
		return fmt.Errorf("unexpected payload %T", ev.Payload)
	}

	data, err := json.Marshal(map[string]string{
		"message_id": msg.ID,
		"sender_id":  msg.SenderID,
		"preview":    preview(msg.Content),
	})
	if err != nil {
		return fmt.Errorf("marshal notification data: %w", err)
	}

	messageID := msg.ID
	notification := &models.Notification{
		UserID:    msg.ReceiverID,
		MessageID: &messageID,
		Type:      models.NotificationTypeNewMessage,
		Title:     "New message",
		Data:      datatypes.JSON(data),
		IsRead:    false,
	}
	return r.notificationRepo.CreateNotification(ev.DB, notification)
}

// CaptureEditHistory snapshots the persisted content before an edit replaces
// it and flags the prospective state as edited. New messages, vanished
// messages and unchanged content are no-ops.
func (r *LifecycleReactions) CaptureEditHistory(_ context.Context, ev events.Event) error {
	if ev.Prior == nil {
		return nil
	}
	next, ok := ev.Payload.(*chat.Message)
	if !ok {
		return fmt.Errorf("unexpected payload %T", ev.Payload)
	}

	current, err := r.chatRepo.GetMessageOrNone(ev.DB, next.ID)
	if err != nil {
		return err
	}
	if current == nil || current.Content == next.Content {
		return nil
	}

	editedAt := r.now()
	history := &chat.MessageHistory{
		MessageID:  current.ID,
		OldContent: current.Content,
		EditedAt:   editedAt,
	}
	if ev.ActorID != "" {
		actor := ev.ActorID
		history.EditedByID = &actor
		next.EditedByID = &actor
	}
	if err := r.chatRepo.CreateHistory(ev.DB, history); err != nil {
		return err
	}

	next.Edited = true
	next.EditedAt = &editedAt
	return nil
}

// CascadeUserCleanup removes everything that hangs off a deleted user. Store
// cascades may already have removed some of it; deleting absent rows is fine.
func (r *LifecycleReactions) CascadeUserCleanup(_ context.Context, ev events.Event) error {
	user, ok := ev.Payload.(*models.User)
	if !ok {
		return fmt.Errorf("unexpected payload %T", ev.Payload)
	}
	db := ev.DB

	messageIDs, err := r.chatRepo.MessageIDsByParticipant(db, user.ID)
	if err != nil {
		return fmt.Errorf("collect messages: %w", err)
	}
	if err := r.notificationRepo.DeleteByMessageIDs(db, messageIDs); err != nil {
		return fmt.Errorf("delete message notifications: %w", err)
	}
	if err := r.chatRepo.DeleteHistoryByMessageIDs(db, messageIDs); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	if err := r.chatRepo.DeleteMessagesByIDs(db, messageIDs); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if err := r.notificationRepo.DeleteUserNotifications(db, user.ID); err != nil {
		return fmt.Errorf("delete user notifications: %w", err)
	}
	if err := r.chatRepo.RemoveUserMemberships(db, user.ID); err != nil {
		return fmt.Errorf("remove memberships: %w", err)
	}

	// Rows whose message went with a store cascade before this ran.
	if err := r.notificationRepo.DeleteOrphaned(db); err != nil {
		return fmt.Errorf("delete orphaned notifications: %w", err)
	}
	if err := r.chatRepo.DeleteOrphanedHistory(db); err != nil {
		return fmt.Errorf("delete orphaned history: %w", err)
	}
	return nil
}

func preview(content string) string {
	if utf8.RuneCountInString(content) <= previewLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:previewLength]) + "..."
}
