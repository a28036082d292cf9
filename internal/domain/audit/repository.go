package audit

import "context"

// Repository is write-once: entries are never updated or deleted.
type Repository interface {
	Append(ctx context.Context, e *Entry) error
	// ListByLoan returns entries oldest first.
	ListByLoan(ctx context.Context, loanNumericID uint64) ([]Entry, error)
}
