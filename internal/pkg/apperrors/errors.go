package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound = errors.New("resource not found")
	ErrConflict         = errors.New("conflict")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenRevoked       = errors.New("token revoked")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")

	// External collaborator errors
	ErrExternalService = errors.New("external service error")
)

// User and binding errors
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUserNotBound   = errors.New("user not bound to a student account")
	ErrNotEnrolled    = errors.New("student record not found")
	ErrBoundElsewhere = errors.New("student account already bound to another identity")
)

// Song request admission errors
var (
	ErrCooldownActive   = errors.New("request cooldown active")
	ErrDuplicateRequest = errors.New("song already requested")
	ErrQuotaExceeded    = errors.New("outstanding request quota exceeded")
)

// Song request lifecycle errors
var (
	ErrRequestNotFound    = errors.New("song request not found")
	ErrAlreadyReviewed    = errors.New("song request already reviewed")
	ErrInvalidDecision    = errors.New("review decision must be approved or rejected")
	ErrInvalidStatus      = errors.New("invalid song request status")
	ErrRequestNotApproved = errors.New("song request is not approved")
)

// Admin errors
var (
	ErrAdminNotFound = errors.New("admin not found")
)

// Is returns whether target matches any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}
