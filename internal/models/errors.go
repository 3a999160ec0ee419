package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure for HTTP mapping and retry decisions.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindForbidden    ErrorKind = "FORBIDDEN"
	KindInvalidState ErrorKind = "INVALID_STATE"
	KindInvalidInput ErrorKind = "INVALID_INPUT"
	KindDuplicate    ErrorKind = "DUPLICATE_KEY"
	KindInternal     ErrorKind = "INTERNAL"
)

const (
	ErrInvalidOperation = "ERR_INVALID_OPERATION"
	ErrInvalidRequest   = "ERR_INVALID_REQUEST"
)

type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func NotFound(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

func Forbidden(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

func InvalidState(message string) *AppError {
	return &AppError{Kind: KindInvalidState, Message: message}
}

func InvalidInput(message string) *AppError {
	return &AppError{Kind: KindInvalidInput, Message: message}
}

func Internal(message string, err error) *AppError {
	return &AppError{Kind: KindInternal, Message: message, Err: err}
}

// KindOf extracts the classification of err, defaulting to Internal for
// anything that is not an AppError.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
