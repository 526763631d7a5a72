package repositories

import (
	"errors"
	"time"

	"messaging_backend/internal/models"

	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepository interface {
	CreateNotification(db *gorm.DB, notification *models.Notification) error
	FindNotificationByID(db *gorm.DB, id string) (*models.Notification, error)
	FindByMessageID(db *gorm.DB, messageID string) ([]models.Notification, error)
	FindUserNotifications(db *gorm.DB, userID string, criteria NotificationCriteria) ([]models.Notification, int64, error)
	MarkAsRead(db *gorm.DB, notificationID string) error
	MarkAllAsRead(db *gorm.DB, userID string) error
	GetUnreadCount(db *gorm.DB, userID string) (int64, error)
	DeleteUserNotifications(db *gorm.DB, userID string) error
	DeleteByMessageIDs(db *gorm.DB, messageIDs []string) error
	DeleteOrphaned(db *gorm.DB) error
	CountAll(db *gorm.DB) (int64, error)
}

type NotificationRepositoryImpl struct{}

type NotificationCriteria struct {
	UnreadOnly bool
	Pagination
}

func NewNotificationRepository() NotificationRepository {
	return &NotificationRepositoryImpl{}
}

func (r *NotificationRepositoryImpl) CreateNotification(db *gorm.DB, notification *models.Notification) error {
	return db.Create(notification).Error
}

func (r *NotificationRepositoryImpl) FindNotificationByID(db *gorm.DB, id string) (*models.Notification, error) {
	var notification models.Notification
	if err := db.First(&notification, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return &notification, nil
}

func (r *NotificationRepositoryImpl) FindByMessageID(db *gorm.DB, messageID string) ([]models.Notification, error) {
	var notifications []models.Notification
	err := db.Where("message_id = ?", messageID).Order("created_at ASC").Find(&notifications).Error
	return notifications, err
}

func (r *NotificationRepositoryImpl) FindUserNotifications(db *gorm.DB, userID string, criteria NotificationCriteria) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	query := db.Model(&models.Notification{}).Where("user_id = ?", userID)

	if criteria.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := criteria.Pagination.apply(query).
		Order("created_at DESC").
		Find(&notifications).Error
	return notifications, total, err
}

func (r *NotificationRepositoryImpl) MarkAsRead(db *gorm.DB, notificationID string) error {
	now := time.Now()
	return db.Model(&models.Notification{}).
		Where("id = ? AND is_read = ?", notificationID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now}).Error
}

func (r *NotificationRepositoryImpl) MarkAllAsRead(db *gorm.DB, userID string) error {
	now := time.Now()
	return db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now}).Error
}

func (r *NotificationRepositoryImpl) GetUnreadCount(db *gorm.DB, userID string) (int64, error) {
	var count int64
	err := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// DeleteUserNotifications is a no-op when the user has none.
func (r *NotificationRepositoryImpl) DeleteUserNotifications(db *gorm.DB, userID string) error {
	return db.Where("user_id = ?", userID).Delete(&models.Notification{}).Error
}

func (r *NotificationRepositoryImpl) DeleteByMessageIDs(db *gorm.DB, messageIDs []string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	return db.Where("message_id IN ?", messageIDs).Delete(&models.Notification{}).Error
}

// DeleteOrphaned removes notifications whose message no longer exists.
func (r *NotificationRepositoryImpl) DeleteOrphaned(db *gorm.DB) error {
	return db.Where("message_id IS NOT NULL AND message_id NOT IN (?)",
		db.Table("messages").Select("id"),
	).Delete(&models.Notification{}).Error
}

func (r *NotificationRepositoryImpl) CountAll(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&models.Notification{}).Count(&count).Error
	return count, err
}
