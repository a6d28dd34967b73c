package api

import (
	"errors"
	"fmt"
)

// Kind classifies an API failure so callers can show a specific
// message instead of a generic one.
type Kind string

const (
	// KindUnavailable means no response reached us at all (backend
	// down, DNS failure, timeout). Distinct from every rejected
	// response so the UI can show a persistent status banner.
	KindUnavailable Kind = "unavailable"

	// KindUnauthorized means an authenticated request was rejected
	// with 401. This is a session-invalidation event, not a login
	// failure.
	KindUnauthorized Kind = "unauthorized"

	// KindInvalidCredentials means a login attempt was rejected.
	KindInvalidCredentials Kind = "invalid_credentials"

	// KindConflict maps 409 responses.
	KindConflict Kind = "conflict"

	// KindNotFound maps 404 responses.
	KindNotFound Kind = "not_found"

	// KindServer maps 5xx responses.
	KindServer Kind = "server"

	// KindGeneric covers everything else.
	KindGeneric Kind = "generic"
)

// Error is the normalized failure shape for every backend call. No raw
// transport error crosses the api package boundary.
type Error struct {
	Kind   Kind
	Status int // HTTP status, 0 when no response was received
	err    error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("keypilot api: %s (status %d): %v", e.Kind, e.Status, e.err)
	}
	return fmt.Sprintf("keypilot api: %s: %v", e.Kind, e.err)
}

func (e *Error) Unwrap() error {
	return e.err
}

// Message returns the human-readable text for this failure.
func (e *Error) Message() string {
	switch e.Kind {
	case KindUnavailable:
		return "Cannot reach the KeyPilot backend. Check your connection and try again."
	case KindUnauthorized:
		return "Your session has expired. Please sign in again."
	case KindInvalidCredentials:
		return "Invalid user ID or password."
	case KindConflict:
		return "The request conflicts with existing data. Refresh and retry."
	case KindNotFound:
		return "The requested resource was not found."
	case KindServer:
		return "The KeyPilot backend hit an internal error. Try again shortly."
	default:
		return "The request failed. Please try again."
	}
}

// newError wraps err with a classification.
func newError(kind Kind, status int, err error) *Error {
	return &Error{Kind: kind, Status: status, err: err}
}

// KindOf extracts the classification from err, or KindGeneric when err
// is not an api Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindGeneric
}

// IsUnavailable reports whether err is a connectivity failure.
func IsUnavailable(err error) bool {
	return KindOf(err) == KindUnavailable
}

// IsUnauthorized reports whether err is a 401 rejection.
func IsUnauthorized(err error) bool {
	return KindOf(err) == KindUnauthorized
}

// classifyStatus maps an HTTP status to an error kind. login controls
// how 401 is read: at login time it means bad credentials, everywhere
// else it means the session is no longer accepted.
func classifyStatus(status int, login bool) Kind {
	switch {
	case status == 401 && login:
		return KindInvalidCredentials
	case status == 401:
		return KindUnauthorized
	case status == 403 && login:
		return KindInvalidCredentials
	case status == 404:
		return KindNotFound
	case status == 409:
		return KindConflict
	case status >= 500:
		return KindServer
	default:
		return KindGeneric
	}
}
