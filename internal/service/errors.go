package service

import (
	"errors"
	"fmt"
)

// Code classifies a service failure. Callers map codes to transport statuses.
type Code string

const (
	CodeValidation          Code = "validation"
	CodeNotFound            Code = "not_found"
	CodeForbidden           Code = "forbidden"
	CodeConflict            Code = "conflict"
	CodeInvalidTransition   Code = "invalid_transition"
	CodeUpstreamUnavailable Code = "upstream_unavailable"
	CodePersistence         Code = "persistence"
)

// Error is the typed failure returned by every service operation.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func ValidationError(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Code: CodeForbidden, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

func InvalidTransition(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

// UpstreamUnavailable wraps a directory failure. The cause stays reachable
// through errors.Is.
func UpstreamUnavailable(err error, format string, args ...any) *Error {
	return &Error{Code: CodeUpstreamUnavailable, Message: fmt.Sprintf(format, args...), Err: err}
}

// PersistenceError hides a store failure behind a generic message.
func PersistenceError(err error) *Error {
	return &Error{Code: CodePersistence, Message: "an internal error occurred", Err: err}
}

// CodeOf returns the code carried by err, or CodePersistence for errors that
// did not originate in this package.
func CodeOf(err error) Code {
	var serviceErr *Error
	if errors.As(err, &serviceErr) {
		return serviceErr.Code
	}
	return CodePersistence
}

// MessageOf returns the caller-facing message of err.
func MessageOf(err error) string {
	var serviceErr *Error
	if errors.As(err, &serviceErr) {
		return serviceErr.Message
	}
	return "an internal error occurred"
}
