package domain

import "errors"

var (
	// Settlement errors
	ErrInvalidPercentage = errors.New("effective percentage makes the settlement undefined")
	ErrAmountUnavailable = errors.New("face amount is not a finite non-negative number")

	// Service errors
	ErrServiceNotFound    = errors.New("service not found")
	ErrCommissionNotFound = errors.New("no active commission for service")
	ErrInvalidTier        = errors.New("invalid waiting-days tier")

	// Transaction errors
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrTransactionFinalized = errors.New("transaction is finalized")
	ErrInvalidAmount        = errors.New("amount must not be negative")
	ErrInvalidDates         = errors.New("invalid transaction dates")

	// Group errors
	ErrGroupNotFound    = errors.New("group not found")
	ErrGroupClientClash = errors.New("group belongs to a different client")
)
