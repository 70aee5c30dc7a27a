package errors

import (
	"errors"
	"fmt"
)

// ErrorType categorizes errors for retry and abort decisions
type ErrorType string

const (
	// Transport-level errors produced by the session layer
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeParsing     ErrorType = "parsing"

	// Scrape-level errors surfaced to the orchestrator
	ErrorTypeSessionUnusable ErrorType = "session_unusable"
	ErrorTypePageLoadTimeout ErrorType = "page_load_timeout"
	ErrorTypeDownloadTimeout ErrorType = "download_timeout"
	ErrorTypeDownloadIO      ErrorType = "download_io"
	ErrorTypeMalformedLink   ErrorType = "malformed_link"

	ErrorTypeUnknown ErrorType = "unknown"
)

// Error is a typed error with an optional HTTP status code and cause
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Cause   error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Type, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a typed error
func New(errType ErrorType, message string) *Error {
	return &Error{Type: errType, Message: message}
}

// Newf creates a typed error with a formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: errType, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a typed error wrapping a cause
func Wrap(errType ErrorType, message string, cause error) *Error {
	return &Error{Type: errType, Message: message, Cause: cause}
}

// WithCode attaches an HTTP status code
func (e *Error) WithCode(code int) *Error {
	e.Code = code
	return e
}

// TypeOf returns the ErrorType of err, unwrapping as needed.
// Untyped errors report ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err carries the given type anywhere in its chain
func IsType(err error, errType ErrorType) bool {
	return TypeOf(err) == errType
}

// IsFatal reports whether err must abort the current course.
// Only an unusable session is fatal; everything else is a per-item warning.
func IsFatal(err error) bool {
	return IsType(err, ErrorTypeSessionUnusable)
}

// IsRetryable reports whether an operation that failed with err is worth
// retrying on a fresh attempt
func IsRetryable(err error) bool {
	switch TypeOf(err) {
	case ErrorTypeNetwork, ErrorTypeServerError,
		ErrorTypePageLoadTimeout, ErrorTypeDownloadTimeout, ErrorTypeDownloadIO:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode reports whether an HTTP status code is transient
func IsRetryableStatusCode(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// FromStatusCode maps an HTTP status code to a typed error
func FromStatusCode(code int, message string) *Error {
	var errType ErrorType
	switch {
	case code == 401 || code == 403:
		errType = ErrorTypeAuth
	case code == 404:
		errType = ErrorTypeNotFound
	case code >= 500:
		errType = ErrorTypeServerError
	default:
		errType = ErrorTypeNetwork
	}
	return &Error{Type: errType, Message: message, Code: code}
}
