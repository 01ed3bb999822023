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
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"

	// Catalog / resolution errors
	ErrCatalogLoad  ErrorCode = "CATALOG_LOAD"
	ErrAssetResolve ErrorCode = "ASSET_RESOLVE"

	// Hint file errors
	ErrHintsParse ErrorCode = "HINTS_PARSE"
	ErrHintsWrite ErrorCode = "HINTS_WRITE"

	// Archive errors
	ErrArchiveOpen   ErrorCode = "ARCHIVE_OPEN"
	ErrArchiveRename ErrorCode = "ARCHIVE_RENAME"

	// FileSystem errors
	ErrFileNotFound     ErrorCode = "FILE_NOT_FOUND"
	ErrFileAccess       ErrorCode = "FILE_ACCESS"
	ErrFileWrite        ErrorCode = "FILE_WRITE"
	ErrOverwriteBlocked ErrorCode = "OVERWRITE_BLOCKED"

	// Platform errors
	ErrPlatformUnknown ErrorCode = "PLATFORM_UNKNOWN"
)

// PacktierError represents a structured error with code and details
type PacktierError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *PacktierError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *PacktierError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *PacktierError) Is(target error) bool {
	var targetErr *PacktierError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new PacktierError with the given code and message
func New(code ErrorCode, message string) *PacktierError {
	return &PacktierError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new PacktierError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *PacktierError {
	return &PacktierError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a PacktierError
func Wrap(err error, code ErrorCode, message string) *PacktierError {
	if err == nil {
		return nil
	}
	return &PacktierError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *PacktierError {
	if err == nil {
		return nil
	}
	return &PacktierError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *PacktierError) WithDetail(key string, value interface{}) *PacktierError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var perr *PacktierError
	if errors.As(err, &perr) {
		return perr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a PacktierError
func GetErrorCode(err error) ErrorCode {
	var perr *PacktierError
	if errors.As(err, &perr) {
		return perr.Code
	}
	return ErrUnknown
}
