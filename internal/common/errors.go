// Package common contains shared constants, sentinel errors and small random
// helpers used across the service. Callers match the errors with errors.Is.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")

	// Multi-factor login errors.
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidStage         = errors.New("invalid login stage")
	ErrOTPMismatchOrExpired = errors.New("otp mismatch or expired")

	// Encryption errors.
	ErrKeyUnavailable    = errors.New("encryption key unavailable")
	ErrInvalidCiphertext = errors.New("invalid ciphertext")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
