package auditmock

import (
	"context"
	"sync"

	domain "loan-lifecycle/internal/domain/audit"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository. Without an
// AppendFn it records appended entries.
type Repo struct {
	AppendFn     func(ctx context.Context, e *domain.Entry) error
	ListByLoanFn func(ctx context.Context, loanNumericID uint64) ([]domain.Entry, error)

	mu       sync.Mutex
	Appended []domain.Entry
}

func (m *Repo) Append(ctx context.Context, e *domain.Entry) error {
	if m.AppendFn != nil {
		return m.AppendFn(ctx, e)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Appended = append(m.Appended, *e)
	return nil
}

func (m *Repo) ListByLoan(ctx context.Context, loanNumericID uint64) ([]domain.Entry, error) {
	if m.ListByLoanFn != nil {
		return m.ListByLoanFn(ctx, loanNumericID)
	}
	return nil, context.Canceled
}
