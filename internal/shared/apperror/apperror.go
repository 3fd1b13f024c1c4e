package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies user-visible failures
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindBadRequest
	KindForbidden
)

// Error carries a kind together with a user-visible message
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound creates a not-found error (missing user/product/session/booking)
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// BadRequest creates a bad-request error (expired hold, illegal transition, ...)
func BadRequest(message string) *Error {
	return &Error{Kind: KindBadRequest, Message: message}
}

// Forbidden creates a forbidden error (acting identity does not own the resource)
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// Wrap attaches a kind and message to an underlying error
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from an error chain, KindInternal if untyped
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error to the HTTP status code it should surface as
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindBadRequest:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// IsNotFound reports whether err is a not-found error
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsBadRequest reports whether err is a bad-request error
func IsBadRequest(err error) bool {
	return KindOf(err) == KindBadRequest
}
