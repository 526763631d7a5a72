package auth

import (
	"errors"
	"fmt"
	"time"

	"messaging_backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrEmptySecret  = errors.New("jwt secret is empty")
)

// Claims is the token payload.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Staff    bool   `json:"staff"`
	jwt.RegisteredClaims
}

// Identity converts the claims into the caller seen by access checks.
func (c *Claims) Identity() models.Identity {
	return models.Identity{
		UserID:   c.UserID,
		Username: c.Username,
		Email:    c.Email,
		Role:     models.UserRole(c.Role),
		Staff:    c.Staff,
	}
}

// TokenVerifier decodes a bearer token into an identity.
type TokenVerifier interface {
	Verify(token string) (models.Identity, error)
}

// TokenManager issues and verifies HS256 tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Generate returns a signed token and its expiry.
func (m *TokenManager) Generate(user *models.User) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)

	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     string(user.Role),
		Staff:    user.IsStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (m *TokenManager) Verify(tokenString string) (models.Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return models.Identity{}, ErrInvalidToken
	}
	return claims.Identity(), nil
}
