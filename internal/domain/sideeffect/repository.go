package sideeffect

import "context"

type Repository interface {
	// Claim inserts an in-flight attempt. It returns false when the effect was
	// already claimed for this loan.
	Claim(ctx context.Context, a *Attempt) (bool, error)
	Finish(ctx context.Context, a *Attempt) error
	ListByLoan(ctx context.Context, loanNumericID uint64) ([]Attempt, error)
}
