package services

import (
	"messaging_backend/internal/models"
	"messaging_backend/internal/repositories"
	"messaging_backend/internal/services/dto"
	"messaging_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type NotificationService interface {
	GetUserNotifications(db *gorm.DB, id models.Identity, criteria dto.NotificationCriteria) (*dto.NotificationListResponse, error)
	GetUnreadCount(db *gorm.DB, id models.Identity) (int64, error)
	MarkAsRead(db *gorm.DB, id models.Identity, notificationID string) (*dto.NotificationResponse, error)
	MarkAllAsRead(db *gorm.DB, id models.Identity) error
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
}

func NewNotificationService(notificationRepo repositories.NotificationRepository) NotificationService {
	return &notificationService{notificationRepo: notificationRepo}
}

func (s *notificationService) GetUserNotifications(db *gorm.DB, id models.Identity, criteria dto.NotificationCriteria) (*dto.NotificationListResponse, error) {
	if !id.Authenticated() {
		return nil, apperrors.ErrAuthenticationRequired
	}

	notifications, total, err := s.notificationRepo.FindUserNotifications(db, id.UserID, repositories.NotificationCriteria{
		UnreadOnly: criteria.UnreadOnly,
		Pagination: toPagination(criteria.PageRequest),
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	out := make([]*dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		out = append(out, toNotificationResponse(&notifications[i]))
	}
	p, size := pageOf(criteria.PageRequest)
	return &dto.NotificationListResponse{Notifications: out, ListMeta: dto.NewListMeta(total, p, size)}, nil
}

func (s *notificationService) GetUnreadCount(db *gorm.DB, id models.Identity) (int64, error) {
	if !id.Authenticated() {
		return 0, apperrors.ErrAuthenticationRequired
	}
	count, err := s.notificationRepo.GetUnreadCount(db, id.UserID)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	return count, nil
}

func (s *notificationService) MarkAsRead(db *gorm.DB, id models.Identity, notificationID string) (*dto.NotificationResponse, error) {
	notification, err := s.notificationRepo.FindNotificationByID(db, notificationID)
	if err != nil {
		return nil, handleRepoError(err)
	}
	if err := authorize(notification, id, models.ActionAcknowledge); err != nil {
		return nil, err
	}
	if err := s.notificationRepo.MarkAsRead(db, notification.ID); err != nil {
		return nil, apperrors.InternalError(err)
	}

	updated, err := s.notificationRepo.FindNotificationByID(db, notification.ID)
	if err != nil {
		return nil, handleRepoError(err)
	}
	return toNotificationResponse(updated), nil
}

func (s *notificationService) MarkAllAsRead(db *gorm.DB, id models.Identity) error {
	if !id.Authenticated() {
		return apperrors.ErrAuthenticationRequired
	}
	if err := s.notificationRepo.MarkAllAsRead(db, id.UserID); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}
