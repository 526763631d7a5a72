package apperrors

import (
	"net/http"
	"strconv"
)

// ErrNotFound wraps a repository miss.
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

// ErrRateLimited is returned by the rate limiter; retryAfter is in seconds.
func ErrRateLimited(retryAfter int) *AppError {
	return New(CodeRateLimited, "pipeline", "too many requests", http.StatusTooManyRequests).
		WithDetails(map[string]string{"retry_after": strconv.Itoa(retryAfter)})
}

// --- auth ---

var ErrAuthenticationRequired = New(
	CodeUnauthorized,
	"auth",
	"authentication required",
	http.StatusUnauthorized,
)

var ErrPermissionDenied = New(
	CodeForbidden,
	"auth",
	"permission denied",
	http.StatusForbidden,
)

var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid username or password",
	http.StatusUnauthorized,
)

var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid or expired token",
	http.StatusUnauthorized,
)

var ErrUsernameTaken = New(
	CodeAlreadyExists,
	"auth",
	"Username or email already in use",
	http.StatusConflict,
)

// --- pipeline ---

var ErrOutsideAllowedHours = New(
	CodeOutsideAllowedHours,
	"pipeline",
	"Chat is available only during allowed hours.",
	http.StatusForbidden,
)

// --- chat ---

var ErrMessageNotFound = New(
	CodeNotFound,
	"chat",
	"Message not found",
	http.StatusNotFound,
)

var ErrConversationNotFound = New(
	CodeNotFound,
	"chat",
	"Conversation not found",
	http.StatusNotFound,
)

var ErrNotificationNotFound = New(
	CodeNotFound,
	"notification",
	"Notification not found",
	http.StatusNotFound,
)

var ErrUserNotFound = New(
	CodeNotFound,
	"user",
	"User not found",
	http.StatusNotFound,
)

// ErrNotParticipant is used when a participant check fails on an object
// the caller may otherwise see.
var ErrNotParticipant = New(
	CodeForbidden,
	"chat",
	"You are not a participant of this conversation.",
	http.StatusForbidden,
)
