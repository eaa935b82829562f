// Package apperr is the error taxonomy shared by the services and the HTTP layer.
package apperr

import (
	"errors"
	"net/http"
	"strings"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInternal     = errors.New("internal server error")
)

// InternalMessage is the only text an Internal error ever shows a client.
const InternalMessage = "Internal server error."

type Error struct {
	Kind     error
	Messages []string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if len(e.Messages) > 0 {
		msg += ": " + strings.Join(e.Messages, "; ")
	}
	if e.Err != nil {
		msg += " (cause: " + e.Err.Error() + ")"
	}
	return msg
}

// Is matches both the kind sentinel and anything in the cause chain.
func (e *Error) Is(target error) bool { return target == e.Kind }
func (e *Error) Unwrap() error        { return e.Err }

func Validation(msgs ...string) *Error {
	return &Error{Kind: ErrValidation, Messages: msgs}
}

func NotFound(msg string) *Error {
	return &Error{Kind: ErrNotFound, Messages: []string{msg}}
}

func Conflict(msg string) *Error {
	return &Error{Kind: ErrConflict, Messages: []string{msg}}
}

func Unauthorized(msg string, cause error) *Error {
	return &Error{Kind: ErrUnauthorized, Messages: []string{msg}, Err: cause}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: ErrForbidden, Messages: []string{msg}}
}

func Internal(cause error) *Error {
	return &Error{Kind: ErrInternal, Err: cause}
}

// From returns err as *Error, wrapping anything foreign as Internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}

func Status(err error) int {
	switch From(err).Kind {
	case ErrValidation:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrConflict:
		return http.StatusConflict
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Public returns the client-facing messages of err.
func Public(err error) []string {
	ae := From(err)
	if ae.Kind == ErrInternal || len(ae.Messages) == 0 {
		return []string{InternalMessage}
	}
	return ae.Messages
}
