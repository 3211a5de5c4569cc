package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrBadRequest    = errors.New("bad request")
	ErrInvalidPhone  = errors.New("invalid phone number format")
	ErrInvalidURL    = errors.New("invalid target URL")
	ErrNotConfigured = errors.New("not configured")
)
