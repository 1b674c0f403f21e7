package models

import "errors"

// Typed failures returned by the core. Callers match with errors.Is; the
// HTTP layer maps each to a status code. None of these are retried inside
// the core.
var (
	ErrInvalidTransition = errors.New("invalid transition for current state")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrTerminalState     = errors.New("entity is in a terminal state")
	ErrWrongState        = errors.New("operation not permitted in current state")
	ErrForbiddenRole     = errors.New("actor role not permitted for this operation")

	ErrNoActiveChallenge = errors.New("no active challenge")
	ErrChallengeExpired  = errors.New("challenge expired")
	ErrCodeMismatch      = errors.New("code mismatch")
	ErrTooManyAttempts   = errors.New("too many failed attempts")
	ErrAlreadyConsumed   = errors.New("challenge already consumed")

	ErrPaymentRequired = errors.New("prerequisite payment missing")
	ErrAmountMismatch  = errors.New("reported amount does not match required amount")

	ErrReasonRequired = errors.New("a non-empty reason is required")
	ErrNotFound       = errors.New("not found")
)
