// Package common defines shared constants, helpers and sentinel errors used
// across the MyBudget server layers. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal      = errors.New("internal error")
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrorForbidden     = errors.New("forbidden")
	ErrorConflict      = errors.New("already exists")
	ErrorValidation    = errors.New("validation error")
	ErrVersionConflict = errors.New("version conflict")

	// Startup/wiring errors.
	ErrConfiguration = errors.New("configuration error")

	// Auth errors. ErrInvalidCredentials is returned for both an unknown user
	// and a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenMissing       = errors.New("token is missing")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)
