package uow

import (
	"context"

	"loan-lifecycle/internal/domain/audit"
	"loan-lifecycle/internal/domain/loan"
	"loan-lifecycle/internal/domain/repayment"
)

// Repos are bound to one transaction.
type Repos struct {
	Loans        loan.Repository
	Audits       audit.Repository
	Installments repayment.Repository
}

// UnitOfWork runs fn in one transaction; fn's error rolls it back.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// WithinLoanTx row-locks the loan before fn runs. An unknown loanID
	// fails with loan.ErrNotFound and fn is not called.
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
