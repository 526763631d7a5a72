package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"messaging_backend/internal/auth"
	"messaging_backend/internal/logger"
	"messaging_backend/internal/models"
	"messaging_backend/internal/repositories"
	"messaging_backend/internal/services/dto"
	"messaging_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// TokenIssuer signs access tokens for a user.
type TokenIssuer interface {
	Generate(user *models.User) (string, time.Time, error)
}

type AuthService interface {
	Register(ctx context.Context, db *gorm.DB, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.AuthResponse, error)
}

type AuthServiceImpl struct {
	userRepo repositories.UserRepository
	tokens   TokenIssuer
}

func NewAuthService(userRepo repositories.UserRepository, tokens TokenIssuer) AuthService {
	return &AuthServiceImpl{userRepo: userRepo, tokens: tokens}
}

func (s *AuthServiceImpl) Register(ctx context.Context, db *gorm.DB, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.FieldError("password", err.Error())
	}

	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	exists, err := s.userRepo.ExistsByUsernameOrEmail(tx, username, email)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if exists {
		return nil, apperrors.ErrUsernameTaken
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	role := models.UserRole(req.Role)
	if role == "" {
		role = models.UserRoleGuest
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.userRepo.Create(tx, user); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "User registered", "user_id", user.ID, "role", user.Role)
	return s.issue(user)
}

func (s *AuthServiceImpl) Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.FindByUsername(db, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.InternalError(err)
	}
	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.CtxWarn(ctx, "Login failed", "username", user.Username)
		return nil, apperrors.ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *AuthServiceImpl) issue(user *models.User) (*dto.AuthResponse, error) {
	token, expiresAt, err := s.tokens.Generate(user)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		User:        *toUserResponse(user),
	}, nil
}
