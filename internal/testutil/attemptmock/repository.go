package attemptmock

import (
	"context"
	"fmt"
	"sync"

	domain "loan-lifecycle/internal/domain/sideeffect"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is an in-memory attempt ledger keyed by (loan, effect). Function
// fields override the default behaviour.
type Repo struct {
	ClaimFn  func(ctx context.Context, a *domain.Attempt) (bool, error)
	FinishFn func(ctx context.Context, a *domain.Attempt) error

	mu       sync.Mutex
	claimed  map[string]bool
	Finished []domain.Attempt
}

func key(a *domain.Attempt) string {
	return fmt.Sprintf("%s:%d", a.Effect, a.LoanID)
}

func (m *Repo) Claim(ctx context.Context, a *domain.Attempt) (bool, error) {
	if m.ClaimFn != nil {
		return m.ClaimFn(ctx, a)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.claimed == nil {
		m.claimed = map[string]bool{}
	}
	if m.claimed[key(a)] {
		return false, nil
	}
	m.claimed[key(a)] = true
	return true, nil
}

func (m *Repo) Finish(ctx context.Context, a *domain.Attempt) error {
	if m.FinishFn != nil {
		return m.FinishFn(ctx, a)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Finished = append(m.Finished, *a)
	return nil
}

func (m *Repo) ListByLoan(ctx context.Context, loanNumericID uint64) ([]domain.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Attempt
	for _, a := range m.Finished {
		if a.LoanID == loanNumericID {
			out = append(out, a)
		}
	}
	return out, nil
}
