package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"
	ErrVersionPin  ErrorCode = "VERSION_PIN"

	// Source tree sync errors
	ErrSyncFailed       ErrorCode = "SYNC_FAILED"
	ErrRevisionNotFound ErrorCode = "REVISION_NOT_FOUND"
	ErrLockHeld         ErrorCode = "LOCK_HELD"

	// Patch stack errors
	ErrPatchConflict      ErrorCode = "PATCH_CONFLICT"
	ErrPatchTargetMissing ErrorCode = "PATCH_TARGET_MISSING"
	ErrPatchReverse       ErrorCode = "PATCH_REVERSE"

	// Resource overlay errors
	ErrResourceMissing ErrorCode = "RESOURCE_MISSING"

	// External build tool errors
	ErrBuildFailed ErrorCode = "BUILD_FAILED"
	ErrSignFailed  ErrorCode = "SIGN_FAILED"
)

// BuildError represents a structured error with code and details
type BuildError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *BuildError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *BuildError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *BuildError) Is(target error) bool {
	var targetErr *BuildError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new BuildError with the given code and message
func New(code ErrorCode, message string) *BuildError {
	return &BuildError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new BuildError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *BuildError {
	return &BuildError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a BuildError
func Wrap(err error, code ErrorCode, message string) *BuildError {
	if err == nil {
		return nil
	}
	return &BuildError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *BuildError {
	if err == nil {
		return nil
	}
	return &BuildError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *BuildError) WithDetail(key string, value interface{}) *BuildError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *BuildError) WithDetails(details map[string]interface{}) *BuildError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var buildErr *BuildError
	if errors.As(err, &buildErr) {
		return buildErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if
// the error is not a BuildError
func GetErrorCode(err error) ErrorCode {
	var buildErr *BuildError
	if errors.As(err, &buildErr) {
		return buildErr.Code
	}
	return ErrUnknown
}

// GetDetail returns a detail value from an error, or nil if the error
// is not a BuildError or the key is absent
func GetDetail(err error, key string) interface{} {
	var buildErr *BuildError
	if errors.As(err, &buildErr) {
		return buildErr.Details[key]
	}
	return nil
}
