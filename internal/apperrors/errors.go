// Package apperrors defines the error taxonomy shared by all AniCore
// operations. Every service and repository translates failures into one of
// the sentinel kinds below so handlers can map them to responses with
// errors.Is instead of string matching.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks bad input shape or range.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a referenced entity that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a uniqueness invariant violation.
	ErrConflict = errors.New("conflict")

	// ErrUnauthorized marks a request without a valid authenticated session.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden marks an authenticated request without sufficient permission.
	ErrForbidden = errors.New("forbidden")

	// ErrStore marks an underlying persistence failure.
	ErrStore = errors.New("store failure")
)

// Error wraps a sentinel kind with a user-facing message and an optional
// cause. Callers check the kind with errors.Is and read the message for
// display; the cause is for logs only.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Is(target error) bool { return errors.Is(e.Kind, target) }

func (e *Error) Unwrap() error { return e.Cause }

// Validation returns a validation error with a user-facing message.
func Validation(message string) error {
	return &Error{Kind: ErrValidation, Message: message}
}

// NotFound returns a not-found error with a user-facing message.
func NotFound(message string) error {
	return &Error{Kind: ErrNotFound, Message: message}
}

// Conflict returns a conflict error with a user-facing message.
func Conflict(message string) error {
	return &Error{Kind: ErrConflict, Message: message}
}

// Unauthorized returns an unauthorized error with a user-facing message.
func Unauthorized(message string) error {
	return &Error{Kind: ErrUnauthorized, Message: message}
}

// Forbidden returns a forbidden error with a user-facing message.
func Forbidden(message string) error {
	return &Error{Kind: ErrForbidden, Message: message}
}

// Store wraps an underlying persistence error. The cause never reaches the
// client; handlers respond with a generic message for this kind.
func Store(message string, cause error) error {
	return &Error{Kind: ErrStore, Message: message, Cause: cause}
}

// UserMessage extracts the user-facing message from an error. Store failures
// and unclassified errors collapse to a generic message so driver details
// never leak to clients.
func UserMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && !errors.Is(appErr.Kind, ErrStore) {
		return appErr.Message
	}
	return "something went wrong, please try again later"
}
