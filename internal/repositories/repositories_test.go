package repositories_test

import (
	"testing"
	"time"

	"messaging_backend/database"
	"messaging_backend/internal/models"
	"messaging_backend/internal/models/chat"
	"messaging_backend/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", PasswordHash: "x", Role: models.UserRoleGuest}
	require.NoError(t, repositories.NewUserRepository().Create(db, u))
	return u
}

func createMessage(t *testing.T, db *gorm.DB, m *chat.Message) *chat.Message {
	t.Helper()
	require.NoError(t, repositories.NewChatRepository().CreateMessage(db, m))
	return m
}

func TestUserRepository(t *testing.T) {
	db := newDB(t)
	repo := repositories.NewUserRepository()
	alice := createUser(t, db, "alice")

	found, err := repo.FindByUsername(db, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, found.ID)

	exists, err := repo.ExistsByUsernameOrEmail(db, "nobody", "alice@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.FindByID(db, "missing")
	assert.ErrorIs(t, err, repositories.ErrUserNotFound)

	require.NoError(t, repo.Delete(db, alice.ID))
	assert.ErrorIs(t, repo.Delete(db, alice.ID), repositories.ErrUserNotFound)
}

func TestChatRepository_UnreadProjection(t *testing.T) {
	db := newDB(t)
	repo := repositories.NewChatRepository()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	unread := createMessage(t, db, &chat.Message{SenderID: alice.ID, ReceiverID: bob.ID, Content: "unread"})
	read := createMessage(t, db, &chat.Message{SenderID: alice.ID, ReceiverID: bob.ID, Content: "read"})
	require.NoError(t, repo.MarkMessageRead(db, read.ID))

	got, err := repo.FindUnreadFor(db, bob.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, unread.ID, got[0].ID)
	assert.Equal(t, "unread", got[0].Content)
	assert.Equal(t, alice.ID, got[0].SenderID)
	// Columns outside the projection stay zero.
	assert.Nil(t, got[0].ThreadRootID)
	assert.True(t, got[0].UpdatedAt.IsZero())

	none, err := repo.FindUnreadFor(db, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestChatRepository_GetMessageOrNone(t *testing.T) {
	db := newDB(t)
	repo := repositories.NewChatRepository()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	m := createMessage(t, db, &chat.Message{SenderID: alice.ID, ReceiverID: bob.ID, Content: "hi"})

	got, err := repo.GetMessageOrNone(db, m.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "hi", got.Content)

	got, err = repo.GetMessageOrNone(db, "missing")
	assert.NoError(t, err)
	assert.Nil(t, got)

	_, err = repo.FindMessageByID(db, "missing")
	assert.ErrorIs(t, err, repositories.ErrMessageNotFound)
}

func TestChatRepository_ThreadOrdering(t *testing.T) {
	db := newDB(t)
	repo := repositories.NewChatRepository()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	base := time.Now().Add(-time.Hour)
	root := createMessage(t, db, &chat.Message{SenderID: alice.ID, ReceiverID: bob.ID, Content: "root"})
	require.NoError(t, repo.SetThreadRoot(db, root.ID, root.ID))

	var replies []string
	for i := 0; i < 3; i++ {
		reply := &chat.Message{SenderID: bob.ID, ReceiverID: alice.ID, Content: "reply", ParentID: &root.ID, ThreadRootID: &root.ID}
		reply.CreatedAt = base.Add(time.Duration(3-i) * time.Minute)
		createMessage(t, db, reply)
		replies = append(replies, reply.ID)
	}

	thread, err := repo.FindThread(db, root.ID)
	require.NoError(t, err)
	require.Len(t, thread, 4)
	// Oldest first: the replies were back-dated in reverse order, the root is newest.
	assert.Equal(t, replies[2], thread[0].ID)
	assert.Equal(t, replies[1], thread[1].ID)
	assert.Equal(t, replies[0], thread[2].ID)
	assert.Equal(t, root.ID, thread[3].ID)
}

func TestChatRepository_Conversations(t *testing.T) {
	db := newDB(t)
	repo := repositories.NewChatRepository()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")

	conv := &chat.Conversation{Participants: []models.User{*alice, *bob}}
	require.NoError(t, repo.CreateConversation(db, conv))
	other := &chat.Conversation{Participants: []models.User{*carol}}
	require.NoError(t, repo.CreateConversation(db, other))

	loaded, err := repo.FindConversationByID(db, conv.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Participants, 2)
	assert.True(t, loaded.HasParticipant(bob.ID))

	ok, err := repo.IsParticipant(db, conv.ID, carol.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	list, total, err := repo.FindUserConversations(db, alice.ID, repositories.ConversationCriteria{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, conv.ID, list[0].ID)

	require.NoError(t, repo.RemoveUserMemberships(db, bob.ID))
	ok, err = repo.IsParticipant(db, conv.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.DeleteConversation(db, conv.ID))
	_, err = repo.FindConversationByID(db, conv.ID)
	assert.ErrorIs(t, err, repositories.ErrConversationNotFound)
	assert.ErrorIs(t, repo.DeleteConversation(db, conv.ID), repositories.ErrConversationNotFound)
}

func TestChatRepository_MessageCriteria(t *testing.T) {
	db := newDB(t)
	repo := repositories.NewChatRepository()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")

	conv := &chat.Conversation{Participants: []models.User{*alice, *bob}}
	require.NoError(t, repo.CreateConversation(db, conv))

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	first := createMessage(t, db, &chat.Message{SenderID: alice.ID, ReceiverID: bob.ID, ConversationID: &conv.ID, Content: "Lunch at noon?"})
	second := createMessage(t, db, &chat.Message{SenderID: bob.ID, ReceiverID: alice.ID, Content: "sure"})
	third := createMessage(t, db, &chat.Message{SenderID: carol.ID, ReceiverID: alice.ID, Content: "hello"})
	for i, m := range []*chat.Message{first, second, third} {
		require.NoError(t, db.Model(m).Update("created_at", base.Add(time.Duration(i)*time.Minute)).Error)
	}

	ids := func(messages []chat.Message) []string {
		out := make([]string, 0, len(messages))
		for _, m := range messages {
			out = append(out, m.ID)
		}
		return out
	}

	list, total, err := repo.FindUserMessages(db, alice.ID, repositories.MessageCriteria{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, ids(list))

	list, _, err = repo.FindUserMessages(db, alice.ID, repositories.MessageCriteria{Ordering: "sent_at"})
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID, second.ID, third.ID}, ids(list))

	// Unknown fields fall back to newest first.
	list, _, err = repo.FindUserMessages(db, alice.ID, repositories.MessageCriteria{Ordering: "content"})
	require.NoError(t, err)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, ids(list))

	list, total, err = repo.FindUserMessages(db, alice.ID, repositories.MessageCriteria{Search: "LUNCH"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, []string{first.ID}, ids(list))

	list, _, err = repo.FindUserMessages(db, alice.ID, repositories.MessageCriteria{Search: "carol@"})
	require.NoError(t, err)
	assert.Equal(t, []string{third.ID}, ids(list))

	list, total, err = repo.FindUserMessages(db, alice.ID, repositories.MessageCriteria{ConversationID: conv.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, []string{first.ID}, ids(list))

	// The user filter still applies inside a conversation.
	_, total, err = repo.FindUserMessages(db, carol.ID, repositories.MessageCriteria{ConversationID: conv.ID})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestChatRepository_ConversationCriteria(t *testing.T) {
	db := newDB(t)
	repo := repositories.NewChatRepository()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")

	withBob := &chat.Conversation{Participants: []models.User{*alice, *bob}}
	withCarol := &chat.Conversation{Participants: []models.User{*alice, *carol}}
	require.NoError(t, repo.CreateConversation(db, withBob))
	require.NoError(t, repo.CreateConversation(db, withCarol))

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, db.Model(withBob).Update("created_at", base).Error)
	require.NoError(t, db.Model(withCarol).Update("created_at", base.Add(time.Hour)).Error)

	list, total, err := repo.FindUserConversations(db, alice.ID, repositories.ConversationCriteria{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, list, 2)
	assert.Equal(t, withCarol.ID, list[0].ID)

	list, _, err = repo.FindUserConversations(db, alice.ID, repositories.ConversationCriteria{Ordering: "created_at"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, withBob.ID, list[0].ID)

	list, total, err = repo.FindUserConversations(db, alice.ID, repositories.ConversationCriteria{Search: "Bob@Example"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, withBob.ID, list[0].ID)
	// Every participant is still loaded, not only the match.
	assert.Len(t, list[0].Participants, 2)

	// Searching never widens the list past the caller's memberships.
	_, total, err = repo.FindUserConversations(db, bob.ID, repositories.ConversationCriteria{Search: "carol"})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestChatRepository_HistoryAndOrphans(t *testing.T) {
	db := newDB(t)
	repo := repositories.NewChatRepository()
	notifications := repositories.NewNotificationRepository()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	m := createMessage(t, db, &chat.Message{SenderID: alice.ID, ReceiverID: bob.ID, Content: "v1"})

	older := time.Now().Add(-time.Minute)
	require.NoError(t, repo.CreateHistory(db, &chat.MessageHistory{MessageID: m.ID, OldContent: "v0", EditedAt: older}))
	require.NoError(t, repo.CreateHistory(db, &chat.MessageHistory{MessageID: m.ID, OldContent: "v1", EditedAt: time.Now()}))
	require.NoError(t, notifications.CreateNotification(db, &models.Notification{
		UserID: bob.ID, MessageID: &m.ID, Type: models.NotificationTypeNewMessage, Title: "New message",
	}))

	rows, err := repo.FindHistory(db, m.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "v1", rows[0].OldContent, "newest first")

	// Foreign keys are off in the test database, so the rows survive the message.
	require.NoError(t, repo.DeleteMessage(db, m.ID))
	require.NoError(t, repo.DeleteOrphanedHistory(db))
	require.NoError(t, notifications.DeleteOrphaned(db))

	rows, err = repo.FindHistory(db, m.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
	count, err := notifications.CountAll(db)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestChatRepository_Stats(t *testing.T) {
	db := newDB(t)
	repo := repositories.NewChatRepository()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	createMessage(t, db, &chat.Message{SenderID: alice.ID, ReceiverID: bob.ID, Content: "a"})
	read := createMessage(t, db, &chat.Message{SenderID: bob.ID, ReceiverID: alice.ID, Content: "b"})
	require.NoError(t, repo.MarkMessageRead(db, read.ID))

	stats, err := repo.GetChatStats(db)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Messages)
	assert.EqualValues(t, 1, stats.UnreadMessages)
	assert.EqualValues(t, 0, stats.Conversations)
}

func TestNotificationRepository(t *testing.T) {
	db := newDB(t)
	repo := repositories.NewNotificationRepository()
	alice := createUser(t, db, "alice")

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.CreateNotification(db, &models.Notification{
			UserID: alice.ID, Type: models.NotificationTypeNewMessage, Title: "New message",
		}))
	}

	list, total, err := repo.FindUserNotifications(db, alice.ID, repositories.NotificationCriteria{
		Pagination: repositories.Pagination{Page: 1, PageSize: 2},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, list, 2)

	require.NoError(t, repo.MarkAsRead(db, list[0].ID))
	unread, err := repo.GetUnreadCount(db, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)

	n, err := repo.FindNotificationByID(db, list[0].ID)
	require.NoError(t, err)
	assert.True(t, n.IsRead)
	assert.NotNil(t, n.ReadAt)

	require.NoError(t, repo.MarkAllAsRead(db, alice.ID))
	unread, err = repo.GetUnreadCount(db, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)

	require.NoError(t, repo.DeleteUserNotifications(db, alice.ID))
	require.NoError(t, repo.DeleteUserNotifications(db, alice.ID), "deleting nothing is not an error")
	_, err = repo.FindNotificationByID(db, n.ID)
	assert.ErrorIs(t, err, repositories.ErrNotificationNotFound)
}
