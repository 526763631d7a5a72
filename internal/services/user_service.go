package services

import (
	"context"

	"messaging_backend/internal/events"
	"messaging_backend/internal/logger"
	"messaging_backend/internal/models"
	"messaging_backend/internal/repositories"
	"messaging_backend/internal/services/dto"
	"messaging_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type UserService interface {
	Me(db *gorm.DB, id models.Identity) (*dto.UserResponse, error)
	DeleteUser(ctx context.Context, db *gorm.DB, id models.Identity) error
	DeleteUserByID(ctx context.Context, db *gorm.DB, actor models.Identity, userID string) error
}

type userService struct {
	userRepo repositories.UserRepository
	chatRepo repositories.ChatRepository
	bus      *events.Bus
}

func NewUserService(userRepo repositories.UserRepository, chatRepo repositories.ChatRepository, bus *events.Bus) UserService {
	return &userService{userRepo: userRepo, chatRepo: chatRepo, bus: bus}
}

func (s *userService) Me(db *gorm.DB, id models.Identity) (*dto.UserResponse, error) {
	if !id.Authenticated() {
		return nil, apperrors.ErrAuthenticationRequired
	}
	user, err := s.userRepo.FindByID(db, id.UserID)
	if err != nil {
		return nil, handleRepoError(err)
	}
	return toUserResponse(user), nil
}

// DeleteUser deletes the caller's own account.
func (s *userService) DeleteUser(ctx context.Context, db *gorm.DB, id models.Identity) error {
	if !id.Authenticated() {
		return apperrors.ErrAuthenticationRequired
	}
	return s.deleteUser(ctx, db, id.UserID, id.UserID)
}

// DeleteUserByID is the administrative variant; route guards check the role.
func (s *userService) DeleteUserByID(ctx context.Context, db *gorm.DB, actor models.Identity, userID string) error {
	if !actor.Authenticated() {
		return apperrors.ErrAuthenticationRequired
	}
	return s.deleteUser(ctx, db, userID, actor.UserID)
}

// deleteUser removes the user row and publishes after-delete inside the same
// transaction, so a failing cleanup rolls the deletion back.
func (s *userService) deleteUser(ctx context.Context, db *gorm.DB, userID, actorID string) error {
	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	user, err := s.userRepo.FindByID(tx, userID)
	if err != nil {
		return handleRepoError(err)
	}

	// Join rows go first; not every store cascades them.
	if err := s.chatRepo.RemoveUserMemberships(tx, user.ID); err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.userRepo.Delete(tx, user.ID); err != nil {
		return handleRepoError(err)
	}

	if err := s.bus.Publish(ctx, events.Event{
		Kind: events.AfterDelete, Entity: events.EntityUser,
		Payload: user, ActorID: actorID, DB: tx,
	}); err != nil {
		return apperrors.InternalError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "User deleted", "user_id", user.ID, "actor_id", actorID)
	return nil
}
