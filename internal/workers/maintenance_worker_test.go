package workers_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"messaging_backend/database"
	"messaging_backend/internal/models"
	"messaging_backend/internal/models/chat"
	"messaging_backend/internal/repositories"
	"messaging_backend/internal/workers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type countingSweeper struct {
	calls atomic.Int64
}

func (s *countingSweeper) Sweep() int {
	s.calls.Add(1)
	return 1
}

func newWorker(t *testing.T, limiter workers.Sweeper, sweep, purge time.Duration) (*workers.MaintenanceWorker, *gorm.DB) {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	w := workers.NewMaintenanceWorker(db, repositories.NewChatRepository(), repositories.NewNotificationRepository(), limiter, sweep, purge)
	return w, db
}

func TestPurgeOrphans(t *testing.T) {
	w, db := newWorker(t, nil, 0, 0)
	users := repositories.NewUserRepository()
	chatRepo := repositories.NewChatRepository()

	alice := &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x", Role: models.UserRoleGuest}
	bob := &models.User{Username: "bob", Email: "bob@example.com", PasswordHash: "x", Role: models.UserRoleGuest}
	require.NoError(t, users.Create(db, alice))
	require.NoError(t, users.Create(db, bob))

	gone := &chat.Message{SenderID: alice.ID, ReceiverID: bob.ID, Content: "gone"}
	kept := &chat.Message{SenderID: alice.ID, ReceiverID: bob.ID, Content: "kept"}
	require.NoError(t, chatRepo.CreateMessage(db, gone))
	require.NoError(t, chatRepo.CreateMessage(db, kept))

	for _, m := range []*chat.Message{gone, kept} {
		id := m.ID
		require.NoError(t, db.Create(&models.Notification{UserID: bob.ID, MessageID: &id, Type: models.NotificationTypeNewMessage, Title: "New message"}).Error)
		require.NoError(t, db.Create(&chat.MessageHistory{MessageID: id, OldContent: "before", EditedAt: time.Now()}).Error)
	}
	// A notification without a message is not an orphan.
	require.NoError(t, db.Create(&models.Notification{UserID: bob.ID, Type: "system", Title: "Welcome"}).Error)

	// Raw delete so nothing cascades.
	require.NoError(t, db.Exec("DELETE FROM messages WHERE id = ?", gone.ID).Error)

	require.NoError(t, w.PurgeOrphans())

	var notifications, history int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&notifications).Error)
	require.NoError(t, db.Model(&chat.MessageHistory{}).Count(&history).Error)
	assert.EqualValues(t, 2, notifications)
	assert.EqualValues(t, 1, history)
}

func TestSweepLimiter(t *testing.T) {
	sweeper := &countingSweeper{}
	w, _ := newWorker(t, sweeper, 0, 0)

	assert.Equal(t, 1, w.SweepLimiter())
	assert.EqualValues(t, 1, sweeper.calls.Load())
}

func TestStart_RunsUntilCancelled(t *testing.T) {
	sweeper := &countingSweeper{}
	w, _ := newWorker(t, sweeper, 5*time.Millisecond, 0)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	require.Eventually(t, func() bool { return sweeper.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	time.Sleep(20 * time.Millisecond)
	settled := sweeper.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, sweeper.calls.Load())
}
