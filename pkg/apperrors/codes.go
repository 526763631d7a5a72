package apperrors

// ErrorCode is the machine-readable error code sent to clients.
type ErrorCode string

const (
	// System
	CodeInternalError ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError ErrorCode = "DATABASE_ERROR"

	// Business logic
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeAlreadyExists    ErrorCode = "ALREADY_EXISTS"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeInvalidOperation ErrorCode = "INVALID_OPERATION"

	// Request pipeline
	CodeRateLimited         ErrorCode = "RATE_LIMITED"
	CodeOutsideAllowedHours ErrorCode = "OUTSIDE_ALLOWED_HOURS"

	// Auth
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeInvalidToken       ErrorCode = "INVALID_TOKEN"
)
