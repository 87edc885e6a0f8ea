package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"

	// ErrCodeAccessDenied marks a write blocked by a server-side access policy.
	ErrCodeAccessDenied ErrorCode = "ACCESS_DENIED"
	// ErrCodeConnectivity marks a remote backend that is unreachable or unconfigured.
	ErrCodeConnectivity ErrorCode = "CONNECTIVITY"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrNotFound          = NewError(ErrCodeNotFound, "entity not found")
	ErrUnknownKind       = NewError(ErrCodeNotFound, "unknown entity kind")
	ErrUnauthorized      = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidPayload    = NewError(ErrCodeInvalid, "invalid payload")
	ErrRemoteUnavailable = NewError(ErrCodeConnectivity, "remote backend not configured")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// IsAccessDenied reports whether err is a server-side policy rejection.
func IsAccessDenied(err error) bool {
	return IsDomainError(err, ErrCodeAccessDenied)
}

// IsConnectivity reports whether err means the remote backend could not be reached.
func IsConnectivity(err error) bool {
	return IsDomainError(err, ErrCodeConnectivity)
}

// IsNotFound reports whether err is a NOT_FOUND domain error.
func IsNotFound(err error) bool {
	return IsDomainError(err, ErrCodeNotFound)
}
