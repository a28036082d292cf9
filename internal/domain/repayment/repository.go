package repayment

import (
	"context"
	"time"
)

type Repository interface {
	CreateBatch(ctx context.Context, items []Installment) error
	CountByLoan(ctx context.Context, loanNumericID uint64) (int64, error)
	// ListByLoan returns installments ordered by seq, optionally filtered by status.
	ListByLoan(ctx context.Context, loanNumericID uint64, status *Status) ([]Installment, error)
	GetByInstallmentID(ctx context.Context, installmentID string) (*Installment, error)
	GetByInstallmentIDForUpdate(ctx context.Context, installmentID string) (*Installment, error)
	SavePayment(ctx context.Context, in *Installment) error
	// MarkLate flips pending, underpaid installments due before now. Returns rows affected.
	MarkLate(ctx context.Context, now time.Time) (int64, error)
}
