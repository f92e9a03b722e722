package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation is returned when a required field is missing or malformed.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateEmail is returned when the email already belongs to a user.
	ErrDuplicateEmail = errors.New("user already exists")
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrBlogNotFound is returned when a blog is not found.
	ErrBlogNotFound = errors.New("blog not found")
	// ErrInvalidCredentials is returned when the password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized is returned when the bearer token is absent or malformed.
	ErrUnauthorized = errors.New("no token, authorization denied")
	// ErrInvalidToken is returned when the token fails verification or has expired.
	ErrInvalidToken = errors.New("token is not valid")
	// ErrForbidden is returned when the caller lacks the role or ownership required.
	ErrForbidden = errors.New("not authorized")
	// ErrInvalidID is returned when a path id is not a valid identifier.
	ErrInvalidID = errors.New("invalid id")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
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
		Error: e.Message,
		Code:  e.Code,
	}
}

// ValidationError wraps ErrValidation with a field-specific message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a ValidationError carrying msg.
func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// MapErrorToHTTP maps domain errors to HTTP errors. Unknown errors become a
// generic 500 so that no internal detail reaches the client.
func MapErrorToHTTP(err error) *HTTPError {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return NewHTTPError(http.StatusBadRequest, ve.Message, "VALIDATION_ERROR")
	case errors.Is(err, ErrValidation):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
	case errors.Is(err, ErrDuplicateEmail):
		return NewHTTPError(http.StatusBadRequest, ErrDuplicateEmail.Error(), "DUPLICATE_EMAIL")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidCredentials.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrInvalidID):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidID.Error(), "INVALID_ID")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, ErrUserNotFound.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrBlogNotFound):
		return NewHTTPError(http.StatusNotFound, ErrBlogNotFound.Error(), "BLOG_NOT_FOUND")
	case errors.Is(err, ErrUnauthorized):
		return NewHTTPError(http.StatusUnauthorized, ErrUnauthorized.Error(), "UNAUTHORIZED")
	case errors.Is(err, ErrInvalidToken):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidToken.Error(), "INVALID_TOKEN")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, ErrForbidden.Error(), "FORBIDDEN")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
