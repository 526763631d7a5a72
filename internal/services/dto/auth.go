package dto

import "time"

type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=150"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"omitempty,max=150"`
	LastName  string `json:"last_name" validate:"omitempty,max=150"`
	// Self-registration may only pick a non-elevated role.
	Role string `json:"role" validate:"omitempty,is-user-role,oneof=guest host"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}
