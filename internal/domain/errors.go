package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)

// Verification flow errors. Each maps to a distinct user-visible outcome,
// so they are separate sentinels rather than wrapped ErrBadRequest values.
var (
	ErrInvalidToken    = errors.New("invalid or unknown verification token")
	ErrExpired         = errors.New("verification expired")
	ErrInvalidCode     = errors.New("invalid verification code")
	ErrTooManyAttempts = errors.New("too many code attempts")
	ErrNotYetResolved  = errors.New("not yet confirmed in the bot")
)
