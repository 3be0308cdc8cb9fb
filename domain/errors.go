package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeInvalid            ErrorCode = "INVALID"
	ErrCodeConflict           ErrorCode = "CONFLICT"
	ErrCodeForbidden          ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal           ErrorCode = "INTERNAL"
	ErrCodeDuplicateUsername  ErrorCode = "DUPLICATE_USERNAME"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUnknownUser        ErrorCode = "UNKNOWN_USER"
	ErrCodeAlreadyClaimed     ErrorCode = "ALREADY_CLAIMED"
	ErrCodeNotSubmitted       ErrorCode = "NOT_SUBMITTED"
	ErrCodeInvalidTransition  ErrorCode = "INVALID_TRANSITION"
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
	ErrUserNotFound    = NewError(ErrCodeNotFound, "user not found")
	ErrTaskNotFound    = NewError(ErrCodeNotFound, "task not found")
	ErrSessionNotFound = NewError(ErrCodeNotFound, "session not found")
	ErrUnauthorized    = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrForbidden       = NewError(ErrCodeForbidden, "action not allowed for this user")
	ErrInvalidPayload  = NewError(ErrCodeInvalid, "invalid payload")
	ErrInvalidRole     = NewError(ErrCodeInvalid, "invalid role")
	ErrInvalidReviewer = NewError(ErrCodeInvalid, "assigned user is not a reviewer")
	ErrInvalidDecision = NewError(ErrCodeInvalid, "invalid review decision")

	ErrDuplicateUsername  = NewError(ErrCodeDuplicateUsername, "username already exists")
	ErrInvalidCredentials = NewError(ErrCodeInvalidCredentials, "incorrect username, password, or role")
	ErrUnknownUser        = NewError(ErrCodeUnknownUser, "referenced user does not exist")
	ErrAlreadyClaimed     = NewError(ErrCodeAlreadyClaimed, "task already claimed")
	ErrNotSubmitted       = NewError(ErrCodeNotSubmitted, "work has not been submitted yet")
	ErrInvalidTransition  = NewError(ErrCodeInvalidTransition, "transition not allowed from current status")

	// ErrStaleTask is returned by guarded repository writes whose precondition no longer holds.
	ErrStaleTask = NewError(ErrCodeConflict, "task changed concurrently")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// CodeOf returns the classification of err, ErrCodeInternal for non-domain errors.
func CodeOf(err error) ErrorCode {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code
	}
	return ErrCodeInternal
}
