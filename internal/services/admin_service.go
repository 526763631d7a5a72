package services

import (
	"messaging_backend/internal/repositories"
	"messaging_backend/internal/services/dto"
	"messaging_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type AdminService interface {
	GetStats(db *gorm.DB) (*dto.StatsResponse, error)
}

type adminService struct {
	userRepo         repositories.UserRepository
	chatRepo         repositories.ChatRepository
	notificationRepo repositories.NotificationRepository
}

func NewAdminService(
	userRepo repositories.UserRepository,
	chatRepo repositories.ChatRepository,
	notificationRepo repositories.NotificationRepository,
) AdminService {
	return &adminService{userRepo: userRepo, chatRepo: chatRepo, notificationRepo: notificationRepo}
}

func (s *adminService) GetStats(db *gorm.DB) (*dto.StatsResponse, error) {
	users, err := s.userRepo.CountAll(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	chatStats, err := s.chatRepo.GetChatStats(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	notifications, err := s.notificationRepo.CountAll(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.StatsResponse{
		Users:          users,
		Conversations:  chatStats.Conversations,
		Messages:       chatStats.Messages,
		UnreadMessages: chatStats.UnreadMessages,
		Notifications:  notifications,
		HistoryRows:    chatStats.HistoryRows,
	}, nil
}
