// Package errors provides error code definitions for the vistoria core.
package errors

import "fmt"

// ErrorCode classifies a failure. Only validation and not-found /
// invalid-state codes ever reach a caller; storage and sync codes are
// logged and absorbed inside their layers.
type ErrorCode string

const (
	// General errors
	ErrInternal   ErrorCode = "INTERNAL_ERROR"
	ErrInvalid    ErrorCode = "INVALID_INPUT"
	ErrValidation ErrorCode = "VALIDATION_ERROR"

	// Storage errors
	ErrStorageDegraded    ErrorCode = "STORAGE_DEGRADED"
	ErrInspectionNotFound ErrorCode = "INSPECTION_NOT_FOUND"
	ErrTombstonedWrite    ErrorCode = "TOMBSTONED_WRITE"
	ErrNamespaceMigration ErrorCode = "NAMESPACE_MIGRATION_FAILED"

	// Sync errors
	ErrSyncNotConfigured ErrorCode = "SYNC_NOT_CONFIGURED"
	ErrSyncFailed        ErrorCode = "SYNC_FAILED"
	ErrSyncAuthFailed    ErrorCode = "SYNC_AUTH_FAILED"

	// Session errors
	ErrInvalidState ErrorCode = "INVALID_STATE"
	ErrNoCurrent    ErrorCode = "NO_CURRENT_INSPECTION"
)

// AppError represents an application error with code and message.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an error code.
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Is checks if an error is of a specific code.
func Is(err error, code ErrorCode) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}
