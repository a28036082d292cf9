package installmentmock

import (
	"context"
	"time"

	domain "loan-lifecycle/internal/domain/repayment"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateBatchFn                 func(ctx context.Context, items []domain.Installment) error
	CountByLoanFn                 func(ctx context.Context, loanNumericID uint64) (int64, error)
	ListByLoanFn                  func(ctx context.Context, loanNumericID uint64, status *domain.Status) ([]domain.Installment, error)
	GetByInstallmentIDFn          func(ctx context.Context, installmentID string) (*domain.Installment, error)
	GetByInstallmentIDForUpdateFn func(ctx context.Context, installmentID string) (*domain.Installment, error)
	SavePaymentFn                 func(ctx context.Context, in *domain.Installment) error
	MarkLateFn                    func(ctx context.Context, now time.Time) (int64, error)
}

func (m *Repo) CreateBatch(ctx context.Context, items []domain.Installment) error {
	if m.CreateBatchFn != nil {
		return m.CreateBatchFn(ctx, items)
	}
	return nil
}

func (m *Repo) CountByLoan(ctx context.Context, loanNumericID uint64) (int64, error) {
	if m.CountByLoanFn != nil {
		return m.CountByLoanFn(ctx, loanNumericID)
	}
	return 0, nil
}

func (m *Repo) ListByLoan(ctx context.Context, loanNumericID uint64, status *domain.Status) ([]domain.Installment, error) {
	if m.ListByLoanFn != nil {
		return m.ListByLoanFn(ctx, loanNumericID, status)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByInstallmentID(ctx context.Context, installmentID string) (*domain.Installment, error) {
	if m.GetByInstallmentIDFn != nil {
		return m.GetByInstallmentIDFn(ctx, installmentID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByInstallmentIDForUpdate(ctx context.Context, installmentID string) (*domain.Installment, error) {
	if m.GetByInstallmentIDForUpdateFn != nil {
		return m.GetByInstallmentIDForUpdateFn(ctx, installmentID)
	}
	return nil, context.Canceled
}

func (m *Repo) SavePayment(ctx context.Context, in *domain.Installment) error {
	if m.SavePaymentFn != nil {
		return m.SavePaymentFn(ctx, in)
	}
	return nil
}

func (m *Repo) MarkLate(ctx context.Context, now time.Time) (int64, error) {
	if m.MarkLateFn != nil {
		return m.MarkLateFn(ctx, now)
	}
	return 0, nil
}
