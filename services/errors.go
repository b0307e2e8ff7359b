package services

import "errors"

var (
	// ErrInsufficientFunds means a debit or reservation would drive the
	// spendable balance negative. Nothing is written when it fires.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrDuplicateReference means a mutation with this idempotency
	// reference was already applied.
	ErrDuplicateReference = errors.New("duplicate reference")

	// ErrInvestmentCap means the user already holds the maximum number
	// of concurrently active investments.
	ErrInvestmentCap = errors.New("active investment limit reached")

	// ErrBelowMinimum means the requested withdrawal is under the
	// minimum withdrawal amount.
	ErrBelowMinimum = errors.New("amount below minimum withdrawal")

	// ErrAlreadyProcessed means a state transition was already applied
	// by an earlier invocation.
	ErrAlreadyProcessed = errors.New("already processed")

	errAlreadyAccrued = errors.New("accrual already applied for this day")
)
