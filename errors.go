package goferseo

import "errors"

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("goferseo: not found")
	// ErrInvalidStatus is returned for an unknown content status.
	ErrInvalidStatus = errors.New("goferseo: invalid status")
	// ErrUnknownKind is returned when the store has no query for a kind.
	ErrUnknownKind = errors.New("goferseo: unknown content kind")
	// ErrMissingSecret is returned by Start when the admin credentials are unset.
	ErrMissingSecret = errors.New("goferseo: admin password and session secret are required")
)
