// Package apperrors defines the error taxonomy surfaced by the API. Every
// semantic rejection maps to exactly one of these; the handlers only render
// them, they never invent new failure shapes.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a definitive rejection of an operation. Prior state is untouched
// whenever one of these is returned.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *Error) Error() string {
	return e.Message
}

// Is makes errors.Is match on the stable code, so wrapped instances with
// contextual messages still compare equal to the sentinel.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithMessagef returns a copy of e carrying a contextual message.
func (e *Error) WithMessagef(format string, args ...any) *Error {
	return &Error{Status: e.Status, Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrInvalidCredentials = &Error{http.StatusUnauthorized, "invalid_credentials", "invalid username or password"}
	ErrInvalidCredential  = &Error{http.StatusUnauthorized, "expired_or_invalid_credential", "invalid or expired token"}
	ErrDuplicateUsername  = &Error{http.StatusConflict, "duplicate_username", "username already exists"}
	ErrInvalidRole        = &Error{http.StatusBadRequest, "invalid_role", "role must be admin, restaurant, delivery or customer"}
	ErrNotFound           = &Error{http.StatusNotFound, "not_found", "not found"}
	ErrForbidden          = &Error{http.StatusForbidden, "forbidden", "insufficient permissions"}
	ErrInvalidOwner       = &Error{http.StatusForbidden, "invalid_owner", "designated owner must have the restaurant role"}
	ErrValidation         = &Error{http.StatusBadRequest, "validation_error", "invalid request"}
	ErrInvalidTransition  = &Error{http.StatusUnprocessableEntity, "invalid_transition", "invalid status transition"}
	ErrAlreadyClaimed     = &Error{http.StatusConflict, "already_claimed", "order already claimed by another courier"}
	ErrUnavailable        = &Error{http.StatusServiceUnavailable, "unavailable", "service temporarily unavailable, retry later"}
)

// StatusOf returns the HTTP status for err, or 500 for anything outside the
// taxonomy.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}

// Payload returns the JSON body rendered for err.
func Payload(err error) map[string]any {
	var e *Error
	if errors.As(err, &e) {
		return map[string]any{"error": e.Message, "code": e.Code}
	}
	return map[string]any{"error": "internal server error", "code": "internal"}
}
