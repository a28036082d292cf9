package repayment

import (
	"cmp"
	"fmt"

	"loan-lifecycle/internal/domain/apperr"
	"loan-lifecycle/internal/domain/loan"
)

// SortField is the closed set of keys installments can be ordered by.
type SortField string

const (
	SortDueDate SortField = "due_date"
	SortAmount  SortField = "amount"
)

var comparators = map[SortField]func(a, b Installment) int{
	SortDueDate: func(a, b Installment) int { return a.DueDate.Compare(b.DueDate) },
	SortAmount:  func(a, b Installment) int { return a.AmountDue.Cmp(b.AmountDue) },
}

func ParseSortField(s string) (SortField, error) {
	if s == "" {
		return SortDueDate, nil
	}
	if _, ok := comparators[SortField(s)]; !ok {
		return "", fmt.Errorf("%w: cannot sort installments by %q", apperr.ErrValidation, s)
	}
	return SortField(s), nil
}

// Comparator orders by the field, then by sequence index ascending so equal
// keys keep a stable order regardless of direction.
func (f SortField) Comparator(order loan.SortOrder) func(a, b Installment) int {
	byField := comparators[f]
	return func(a, b Installment) int {
		c := byField(a, b)
		if order == loan.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.Seq, b.Seq)
	}
}

type ListFilter struct {
	Status    *Status
	SortBy    SortField
	SortOrder loan.SortOrder
}
