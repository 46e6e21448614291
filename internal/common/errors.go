// Package common defines shared constants and sentinel errors used across
// notevault components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrInternal           = errors.New("internal error")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrBadRequest         = errors.New("bad request")

	// Auth errors (malformed, forged or expired token).
	ErrInvalidToken = errors.New("invalid token")

	// Object storage errors.
	ErrStoreUnconfigured = errors.New("object store is not configured")
)
