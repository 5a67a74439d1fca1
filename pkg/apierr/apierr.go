package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the closed classification for everything the remote API (or the
// wire between us and it) can do wrong.
type Kind string

const (
	KindNetwork      Kind = "NETWORK"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindNotFound     Kind = "NOT_FOUND"
	KindConflict     Kind = "CONFLICT"
	KindValidation   Kind = "VALIDATION"
	KindServer       Kind = "SERVER"
	KindUnknown      Kind = "UNKNOWN"
)

// Error represents a typed client-side error with HTTP awareness.
type Error struct {
	Kind    Kind     `json:"kind"`
	Status  int      `json:"status"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
	Err     error    `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(kind Kind, status int, message string) *Error {
	return &Error{Kind: kind, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, kind Kind, status int, message string) *Error {
	return &Error{Kind: kind, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNetwork          = New(KindNetwork, 0, "cannot reach server")
	ErrUnauthorized     = New(KindUnauthorized, http.StatusUnauthorized, "session expired or not authenticated")
	ErrForbidden        = New(KindForbidden, http.StatusForbidden, "insufficient permissions")
	ErrNotFound         = New(KindNotFound, http.StatusNotFound, "resource not found")
	ErrConflict         = New(KindConflict, http.StatusConflict, "requested transition is no longer valid")
	ErrValidation       = New(KindValidation, http.StatusUnprocessableEntity, "validation failed")
	ErrServer           = New(KindServer, http.StatusInternalServerError, "server error, retry later")
	ErrNotAuthenticated = New(KindUnauthorized, http.StatusUnauthorized, "not authenticated")
	ErrAccessDenied     = New(KindForbidden, http.StatusForbidden, "access denied")
)

// FromStatus classifies an HTTP status code into the taxonomy. The message
// is expected to carry whatever the server said; callers keep it verbatim.
func FromStatus(status int, message string) *Error {
	kind := KindUnknown
	switch {
	case status == http.StatusUnauthorized:
		kind = KindUnauthorized
	case status == http.StatusForbidden:
		kind = KindForbidden
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status == http.StatusConflict:
		kind = KindConflict
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		kind = KindValidation
	case status >= 500:
		kind = KindServer
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return New(kind, status, message)
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, KindUnknown, 0, err.Error())
}

// KindOf extracts the kind from an arbitrary error, KindUnknown otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
