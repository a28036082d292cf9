package loan

import (
	"context"
	"fmt"
	"time"

	"loan-lifecycle/internal/domain/apperr"
)

type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case "":
		return Desc, nil
	case Asc, Desc:
		return SortOrder(s), nil
	}
	return "", fmt.Errorf("%w: sort order must be asc or desc", apperr.ErrValidation)
}

// SortField is the closed set of columns a loan listing can be ordered by.
type SortField string

const (
	SortCreatedAt SortField = "created_at"
	SortAmount    SortField = "amount"
	SortStatus    SortField = "status"
)

var sortColumns = map[SortField]string{
	SortCreatedAt: "created_at",
	SortAmount:    "principal",
	SortStatus:    "status",
}

func ParseSortField(s string) (SortField, error) {
	if s == "" {
		return SortCreatedAt, nil
	}
	if _, ok := sortColumns[SortField(s)]; !ok {
		return "", fmt.Errorf("%w: cannot sort loans by %q", apperr.ErrValidation, s)
	}
	return SortField(s), nil
}

func (f SortField) Column() string { return sortColumns[f] }

type ListFilter struct {
	Status        *Status
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	SortBy        SortField
	SortOrder     SortOrder
	Skip          int
	Limit         int
}

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	GetByID(ctx context.Context, id uint64) (*Loan, error)
	// GetByLoanIDForUpdate locks the row for the rest of the transaction.
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)
	ListByUser(ctx context.Context, userID string, f ListFilter) ([]Loan, int64, error)
	// SaveDecision persists status/decided_by/decided_at only while the row is
	// still pending. Returns ErrInvalidTransition when no row was updated.
	SaveDecision(ctx context.Context, l *Loan) error
	// SaveReview persists the review fields only while review is pending.
	SaveReview(ctx context.Context, l *Loan) error
}
