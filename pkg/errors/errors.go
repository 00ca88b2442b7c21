package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork          ErrorType = "network"
	ErrorTypeParsing          ErrorType = "parsing"
	ErrorTypeNotFound         ErrorType = "not_found"
	ErrorTypeServerError      ErrorType = "server_error"
	ErrorTypeCacheCorrupted   ErrorType = "cache_corrupted"
	ErrorTypeIdentityMismatch ErrorType = "cache_identity_mismatch"
	ErrorTypeUnknown          ErrorType = "unknown"
)

// Error represents a failure with type information.
// Code carries the HTTP status when one is known, 0 otherwise.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Type)
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (code %d)", msg, e.Code)
	}
	msg += ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error without a cause
func New(t ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a typed error around cause
func Wrap(t ErrorType, cause error, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...), Err: cause}
}

// TypeOf returns the type of the first *Error in err's chain, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err's chain contains an *Error of type t
func IsType(err error, t ErrorType) bool {
	if err == nil {
		return false
	}
	return TypeOf(err) == t
}

// IsNotFound reports whether the board could not be resolved
func IsNotFound(err error) bool { return IsType(err, ErrorTypeNotFound) }

// IsCacheCorrupted reports whether a cache file could not be decoded
func IsCacheCorrupted(err error) bool { return IsType(err, ErrorTypeCacheCorrupted) }

// IsIdentityMismatch reports whether a cache file belongs to another board
func IsIdentityMismatch(err error) bool { return IsType(err, ErrorTypeIdentityMismatch) }

// FromStatusCode maps an unexpected HTTP status to an error type
func FromStatusCode(statusCode int) ErrorType {
	switch {
	case statusCode == 404 || statusCode == 410:
		return ErrorTypeNotFound
	case statusCode >= 500:
		return ErrorTypeServerError
	default:
		return ErrorTypeUnknown
	}
}

// IsRetryable reports whether a failure of type t may succeed when repeated
func IsRetryable(t ErrorType) bool {
	switch t {
	case ErrorTypeNetwork, ErrorTypeServerError:
		return true
	default:
		return false
	}
}
