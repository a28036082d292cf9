package loanmock

import (
	"context"

	domain "loan-lifecycle/internal/domain/loan"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset functions return context.Canceled for reads and nil for writes.
type Repo struct {
	CreateFn               func(ctx context.Context, l *domain.Loan) error
	GetByLoanIDFn          func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetByIDFn              func(ctx context.Context, id uint64) (*domain.Loan, error)
	GetByLoanIDForUpdateFn func(ctx context.Context, loanID string) (*domain.Loan, error)
	ListByUserFn           func(ctx context.Context, userID string, f domain.ListFilter) ([]domain.Loan, int64, error)
	SaveDecisionFn         func(ctx context.Context, l *domain.Loan) error
	SaveReviewFn           func(ctx context.Context, l *domain.Loan) error
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.Loan, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDForUpdateFn != nil {
		return m.GetByLoanIDForUpdateFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByUser(ctx context.Context, userID string, f domain.ListFilter) ([]domain.Loan, int64, error) {
	if m.ListByUserFn != nil {
		return m.ListByUserFn(ctx, userID, f)
	}
	return nil, 0, context.Canceled
}

func (m *Repo) SaveDecision(ctx context.Context, l *domain.Loan) error {
	if m.SaveDecisionFn != nil {
		return m.SaveDecisionFn(ctx, l)
	}
	return nil
}

func (m *Repo) SaveReview(ctx context.Context, l *domain.Loan) error {
	if m.SaveReviewFn != nil {
		return m.SaveReviewFn(ctx, l)
	}
	return nil
}
