package loan

import (
	"context"
	"fmt"
	"time"

	"loan-lifecycle/internal/domain/actor"
	"loan-lifecycle/internal/domain/apperr"
	domain "loan-lifecycle/internal/domain/loan"
	"loan-lifecycle/pkg/amortization"
	"loan-lifecycle/pkg/id"
)

type Usecase struct {
	repo domain.Repository
	now  func() time.Time
}

func NewUsecase(r domain.Repository) *Usecase {
	return &Usecase{repo: r, now: time.Now}
}

// WithClock replaces the time source used for timestamps and payoff dates.
func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	u.now = now
	return u
}

// Apply opens a pending loan for the calling customer.
func (u *Usecase) Apply(ctx context.Context, who actor.Actor, in ApplyInput) (*LoanDTO, error) {
	if err := who.Require(actor.CapApply); err != nil {
		return nil, err
	}
	rate := domain.DefaultInterestRate
	if in.InterestRate != nil {
		rate = *in.InterestRate
	}
	terms := amortization.Terms{Principal: in.Amount, TermMonths: in.TermMonths, AnnualRate: rate}
	if _, err := amortization.Calculate(terms); err != nil {
		return nil, apperr.Validation(err)
	}

	l := &domain.Loan{
		LoanID:       id.NewID32(),
		UserID:       who.ID,
		Principal:    in.Amount.Round(amortization.Places),
		TermMonths:   in.TermMonths,
		InterestRate: rate,
		Status:       domain.StatusPending,
		ReviewStatus: domain.ReviewPending,
		CreatedAt:    u.now().UTC(),
	}
	if err := u.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	return toDTO(l), nil
}

// Get returns a loan to its owner or to a role that may view any loan.
func (u *Usecase) Get(ctx context.Context, who actor.Actor, loanID string) (*LoanDTO, error) {
	l, err := u.repo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if l.UserID != who.ID {
		if err := who.Require(actor.CapViewAny); err != nil {
			return nil, err
		}
	}
	return toDTO(l), nil
}

func (u *Usecase) ListByUser(ctx context.Context, who actor.Actor, in ListInput) (*PageDTO, error) {
	if in.UserID == "" {
		in.UserID = who.ID
	}
	if in.UserID != who.ID {
		if err := who.Require(actor.CapViewAny); err != nil {
			return nil, err
		}
	}

	f := in.Filter
	if f.Skip < 0 {
		return nil, fmt.Errorf("%w: skip must not be negative", apperr.ErrValidation)
	}
	switch {
	case f.Limit == 0:
		f.Limit = DefaultLimit
	case f.Limit < 0 || f.Limit > MaxLimit:
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", apperr.ErrValidation, MaxLimit)
	}
	if f.SortBy == "" {
		f.SortBy = domain.SortCreatedAt
	}
	if f.SortOrder == "" {
		f.SortOrder = domain.Desc
	}
	if f.CreatedAfter != nil && f.CreatedBefore != nil && f.CreatedAfter.After(*f.CreatedBefore) {
		return nil, fmt.Errorf("%w: created_after is later than created_before", apperr.ErrValidation)
	}

	rows, total, err := u.repo.ListByUser(ctx, in.UserID, f)
	if err != nil {
		return nil, err
	}
	page := &PageDTO{Items: make([]LoanDTO, 0, len(rows)), Total: total, Skip: f.Skip, Limit: f.Limit}
	for i := range rows {
		page.Items = append(page.Items, *toDTO(&rows[i]))
	}
	return page, nil
}

// Estimate quotes a loan without persisting anything. The payoff date assumes
// approval now.
func (u *Usecase) Estimate(in EstimateInput) (*EstimateDTO, error) {
	q, err := amortization.Calculate(amortization.Terms{
		Principal:  in.Amount,
		TermMonths: in.TermMonths,
		AnnualRate: in.InterestRate,
	})
	if err != nil {
		return nil, apperr.Validation(err)
	}
	return &EstimateDTO{
		MonthlyPayment: q.MonthlyPayment,
		TotalPayment:   q.TotalPayment,
		TotalInterest:  q.TotalInterest,
		PayoffDate:     amortization.PayoffDate(u.now().UTC(), in.TermMonths),
	}, nil
}

func toDTO(l *domain.Loan) *LoanDTO {
	dto := &LoanDTO{
		LoanID:       l.LoanID,
		UserID:       l.UserID,
		Principal:    l.Principal,
		TermMonths:   l.TermMonths,
		InterestRate: l.InterestRate,
		Status:       string(l.Status),
		ReviewStatus: string(l.ReviewStatus),
		ReviewedBy:   l.ReviewedBy,
		DecidedBy:    l.DecidedBy,
		DecidedAt:    l.DecidedAt,
		CreatedAt:    l.CreatedAt,
	}
	// stored terms were validated on apply
	if q, err := amortization.Calculate(amortization.Terms{
		Principal: l.Principal, TermMonths: l.TermMonths, AnnualRate: l.InterestRate,
	}); err == nil {
		dto.MonthlyPayment = q.MonthlyPayment
	}
	return dto
}
