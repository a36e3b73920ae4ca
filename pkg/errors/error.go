// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Invalid parameters, date ranges, granularities
//   - Session and lookup errors (200-299): Login, instrument lookup and cache failures
//   - Market data errors (700-799): Fetching, parsing and persisting candles
//
// Only ErrCodeRemoteData is recoverable. A provider that answers a request with
// status=false has told us there is no data for that slice; every other failure
// is an infrastructure or contract violation and must stop the acquisition.
//
// Usage:
//
//	err := errors.Newf(errors.ErrCodeInvalidRange, "start %s is after end %s", start, end)
//
//	if errors.IsRecoverable(err) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error.
// A RemoteDataError reports ErrCodeRemoteData. Returns ErrCodeUnknown for any other error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	var remote *RemoteDataError
	if errors.As(err, &remote) {
		return ErrCodeRemoteData
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// IsRecoverable reports whether the acquisition may continue after err.
func IsRecoverable(err error) bool {
	if err == nil {
		return true
	}

	return GetCode(err) == ErrCodeRemoteData
}

// RemoteDataError is returned when the provider answers a historical data
// request with status=false. It carries the provider's own error code and message.
type RemoteDataError struct {
	ErrorCode   string // Provider error code, e.g. AB1004
	Message     string // Provider message
	Granularity string
	From        string
	To          string
}

// NewRemoteDataError creates a new RemoteDataError.
func NewRemoteDataError(errorCode, message, granularity, from, to string) *RemoteDataError {
	return &RemoteDataError{
		ErrorCode:   errorCode,
		Message:     message,
		Granularity: granularity,
		From:        from,
		To:          to,
	}
}

// Error implements the error interface.
func (e *RemoteDataError) Error() string {
	return fmt.Sprintf("[%d] provider rejected %s data from %s to %s: %s (errorcode %s)",
		ErrCodeRemoteData, e.Granularity, e.From, e.To, e.Message, e.ErrorCode)
}

// IsRemoteDataError checks if an error is a RemoteDataError.
// It uses errors.As to check the error chain.
func IsRemoteDataError(err error) bool {
	var remoteErr *RemoteDataError

	return errors.As(err, &remoteErr)
}
