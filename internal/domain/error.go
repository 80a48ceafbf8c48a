package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound            = errors.New("entity not found")
	ErrConflict            = errors.New("conflicting state")
	ErrAlreadyOwned        = errors.New("item already owned")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrForbidden           = errors.New("forbidden")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrUpgradeRequired     = errors.New("premium subscription required")
	ErrRateLimited         = errors.New("too many requests")

	// Payment verification
	ErrVerificationFailed     = errors.New("payment verification failed")
	ErrVerificationInProgress = errors.New("payment verification already in progress")
	ErrUpstreamUnavailable    = errors.New("payment processor unavailable")

	// Storage
	ErrOperationFailed    = errors.New("storage operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid execution context")
)
