package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultScheduleCacheTTL bounds how long a resolved surcharge is reused
	DefaultScheduleCacheTTL = 10 * time.Minute

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// OverAllocationWarning is attached to saves whose destination items exceed the net amount
	OverAllocationWarning = "destination items exceed the net amount"
)
