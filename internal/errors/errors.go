// Package errors defines the domain error taxonomy and its mapping to
// HTTP statuses. Services return these sentinels (or wrap them); the
// transport layer only ever calls HTTPStatus.
package errors

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// Validation errors: the caller's fault, never retried.
var (
	ErrSelfSwipe     = errors.New("cannot swipe on yourself")
	ErrInvalidAction = errors.New("invalid swipe action")
	ErrNotFound      = errors.New("record not found")
	ErrIneligible    = errors.New("target is not eligible")
)

// Conflict errors: a defined outcome when the net effect is already
// correct, surfaced only when the caller must be told.
var (
	ErrAlreadyMatched   = errors.New("pair already matched")
	ErrNothingToUndo    = errors.New("no swipe eligible for undo")
	ErrNotParticipant   = errors.New("user is not part of this match")
	ErrAlreadyUnmatched = errors.New("match already dissolved")
)

// Policy errors.
var (
	ErrLimitReached = errors.New("daily swipe limit reached")
)

// Is re-exports errors.Is so callers don't need two imports.
func Is(err, target error) bool { return errors.Is(err, target) }

// HTTPStatus converts domain and infra errors into an HTTP status code.
// Centralized so handlers stay free of error-classification logic.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, ErrSelfSwipe),
		errors.Is(err, ErrInvalidAction),
		errors.Is(err, ErrIneligible):
		return http.StatusBadRequest

	case errors.Is(err, ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound

	case errors.Is(err, ErrAlreadyMatched),
		errors.Is(err, ErrNothingToUndo),
		errors.Is(err, ErrAlreadyUnmatched):
		return http.StatusConflict

	case errors.Is(err, ErrNotParticipant):
		return http.StatusForbidden

	case errors.Is(err, ErrLimitReached):
		return http.StatusTooManyRequests

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout

	default:
		// transient storage and unknown errors: retryable by the caller
		return http.StatusInternalServerError
	}
}
