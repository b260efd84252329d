package errors

import (
	stderrors "errors"
	"net/http"
	"strings"
)

// ========== code constants ==========

const (
	CodeSuccess = 200
)

// HTTP layer codes (400-599)
const (
	CodeInvalidParam = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeConflict     = 409
	CodeServerError  = 500
)

// Kind classifies an AppError and decides its status code.
type Kind int

const (
	KindUnauthorized Kind = iota + 1
	KindForbidden
	KindNotFound
	KindConflict
	KindValidation
	KindIdentity
)

// AppError is the error every service returns for an expected failure. It
// always carries at least one human readable message.
type AppError struct {
	Kind     Kind
	Messages []string
}

func (e *AppError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// StatusCode maps the kind to its HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Kind {
	case KindUnauthorized:
		return CodeUnauthorized
	case KindForbidden:
		return CodeForbidden
	case KindNotFound:
		return CodeNotFound
	case KindConflict:
		return CodeConflict
	case KindValidation:
		return CodeInvalidParam
	default:
		return http.StatusInternalServerError
	}
}

func newAppError(kind Kind, fallback string, messages []string) *AppError {
	if len(messages) == 0 {
		messages = []string{fallback}
	}
	return &AppError{Kind: kind, Messages: messages}
}

// Unauthorized is a 401.
func Unauthorized(messages ...string) *AppError {
	return newAppError(KindUnauthorized, "You are not authorized.", messages)
}

// Forbidden is a 403.
func Forbidden(messages ...string) *AppError {
	return newAppError(KindForbidden, "You are not authorized to access this resource.", messages)
}

// NotFound is a 404.
func NotFound(messages ...string) *AppError {
	return newAppError(KindNotFound, "Resource not found.", messages)
}

// Conflict is a 409.
func Conflict(messages ...string) *AppError {
	return newAppError(KindConflict, "Resource conflict.", messages)
}

// Validation is a 400.
func Validation(messages ...string) *AppError {
	return newAppError(KindValidation, "Invalid request.", messages)
}

// Identity wraps failures reported by the user or role directory.
func Identity(messages ...string) *AppError {
	return newAppError(KindIdentity, "Identity operation failed.", messages)
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err carries an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}
