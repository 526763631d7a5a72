package workers

import (
	"context"
	"time"

	"messaging_backend/internal/logger"
	"messaging_backend/internal/repositories"

	"gorm.io/gorm"
)

// Sweeper drops idle keys and reports how many went.
type Sweeper interface {
	Sweep() int
}

// MaintenanceWorker runs the periodic housekeeping jobs.
type MaintenanceWorker struct {
	db               *gorm.DB
	chatRepo         repositories.ChatRepository
	notificationRepo repositories.NotificationRepository
	limiter          Sweeper

	sweepInterval time.Duration
	purgeInterval time.Duration
}

func NewMaintenanceWorker(
	db *gorm.DB,
	chatRepo repositories.ChatRepository,
	notificationRepo repositories.NotificationRepository,
	limiter Sweeper,
	sweepInterval, purgeInterval time.Duration,
) *MaintenanceWorker {
	return &MaintenanceWorker{
		db:               db,
		chatRepo:         chatRepo,
		notificationRepo: notificationRepo,
		limiter:          limiter,
		sweepInterval:    sweepInterval,
		purgeInterval:    purgeInterval,
	}
}

// Start launches the background jobs. They stop with ctx.
func (w *MaintenanceWorker) Start(ctx context.Context) {
	if w.limiter != nil && w.sweepInterval > 0 {
		go w.every(ctx, w.sweepInterval, "rate limiter sweep", func() { w.SweepLimiter() })
	}
	if w.purgeInterval > 0 {
		go w.every(ctx, w.purgeInterval, "orphan purge", func() {
			if err := w.PurgeOrphans(); err != nil {
				logger.Error("orphan purge failed", "error", err)
			}
		})
	}
}

func (w *MaintenanceWorker) every(ctx context.Context, interval time.Duration, name string, job func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("maintenance job stopped", "job", name)
			return
		case <-ticker.C:
			job()
		}
	}
}

// SweepLimiter drops rate limiter keys with no hit inside the window.
func (w *MaintenanceWorker) SweepLimiter() int {
	n := w.limiter.Sweep()
	if n > 0 {
		logger.Debug("rate limiter swept idle clients", "removed", n)
	}
	return n
}

// PurgeOrphans removes notifications and history rows whose message is gone.
// Both deletes share one transaction.
func (w *MaintenanceWorker) PurgeOrphans() error {
	tx := w.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer tx.Rollback()

	if err := w.notificationRepo.DeleteOrphaned(tx); err != nil {
		return err
	}
	if err := w.chatRepo.DeleteOrphanedHistory(tx); err != nil {
		return err
	}
	return tx.Commit().Error
}
