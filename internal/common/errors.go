// Package common defines shared constants and sentinel errors used across
// the storage, service and transport layers of the authorization server.
// Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound       = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrStoreUnavailable = errors.New("account store unavailable")

	// Auth errors (invalid or malformed token, bad signature).
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenKindMismatch = errors.New("token kind mismatch")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")

	// Service-level errors.
	ErrAccountNotFound = errors.New("account not found")
	ErrUnknownFamily   = errors.New("unknown token family")
	ErrorValidation    = errors.New("validation error")
)
