package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound is returned by the data access layer when no row matches.
	ErrNotFound = errors.New("record not found")
	// ErrPostNotFound is returned when a post does not exist or is not visible.
	ErrPostNotFound = errors.New("Post not found")
	// ErrUserNotFound is returned when a user does not exist.
	ErrUserNotFound = errors.New("User not found")
	// ErrEmailExists is returned when registering an email that is already taken.
	ErrEmailExists = errors.New("Email already exists")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("Invalid email or password")
	// ErrUnauthorized is returned when a request carries no bearer token.
	ErrUnauthorized = errors.New("Unauthorized")
	// ErrForbidden is returned for bad tokens, insufficient roles and foreign resources.
	ErrForbidden = errors.New("Forbidden")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Success: false,
		Error:   e.Message,
		Code:    e.Code,
	}
}

// BadRequest wraps a user-facing message as a 400 error.
func BadRequest(message string) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message, "VALIDATION_ERROR")
}

// messenger is implemented by errors whose message is safe to show to callers.
type messenger interface {
	error
	UserMessage() string
}

// MapErrorToHTTP maps domain errors to HTTP errors.
// Anything unknown becomes a 500 with a generic message.
func MapErrorToHTTP(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	var msg messenger
	if errors.As(err, &msg) {
		return BadRequest(msg.UserMessage())
	}

	switch {
	case errors.Is(err, ErrPostNotFound):
		return NewHTTPError(http.StatusNotFound, ErrPostNotFound.Error(), "POST_NOT_FOUND")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, ErrUserNotFound.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, "Not found", "NOT_FOUND")
	case errors.Is(err, ErrEmailExists):
		return NewHTTPError(http.StatusBadRequest, ErrEmailExists.Error(), "EMAIL_EXISTS")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrUnauthorized):
		return NewHTTPError(http.StatusUnauthorized, ErrUnauthorized.Error(), "UNAUTHORIZED")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, ErrForbidden.Error(), "FORBIDDEN")
	default:
		return NewHTTPError(http.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR")
	}
}
