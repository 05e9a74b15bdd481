// Package errs defines the error kinds shared across layers so they can be
// mapped once at the transport boundary.
package errs

import "errors"

// Kind is a stable machine-readable error category.
type Kind string

const (
	KindBadRequest       Kind = "bad_request"
	KindUnauthorized     Kind = "unauthorized"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindStoreUnavailable Kind = "store_unavailable"
)

// Error carries a kind plus a short human message. Internal failure detail
// (driver errors, paths) never rides along; callers wrap those separately.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Common sentinels. Message text matches what clients see on the wire.
var (
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Message: "Unauthorized"}
	ErrNotFound     = &Error{Kind: KindNotFound, Message: "Not found"}

	// ErrStoreUnavailable covers any backing collaborator failure; the
	// original cause is logged server-side, never echoed to the caller.
	ErrStoreUnavailable = &Error{Kind: KindStoreUnavailable, Message: "Internal error"}
)

// BadRequest returns a validation error with the given client-facing message.
func BadRequest(msg string) *Error {
	return &Error{Kind: KindBadRequest, Message: msg}
}

// Conflict returns a duplicate-resource error.
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// KindOf extracts the kind from err, defaulting to KindStoreUnavailable for
// anything that is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStoreUnavailable
}
