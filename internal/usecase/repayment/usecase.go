// Package repayment materializes amortization schedules into installments and
// tracks payments against them.
package repayment

import (
	"context"
	"slices"
	"time"

	"loan-lifecycle/internal/domain/actor"
	"loan-lifecycle/internal/domain/apperr"
	"loan-lifecycle/internal/domain/loan"
	domain "loan-lifecycle/internal/domain/repayment"
	"loan-lifecycle/internal/domain/uow"
	"loan-lifecycle/pkg/amortization"
	"loan-lifecycle/pkg/id"
)

type Usecase struct {
	loans        loan.Repository
	installments domain.Repository
	uow          uow.UnitOfWork
	now          func() time.Time
}

func NewUsecase(loans loan.Repository, installments domain.Repository, tx uow.UnitOfWork) *Usecase {
	return &Usecase{loans: loans, installments: installments, uow: tx, now: time.Now}
}

func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	u.now = now
	return u
}

// GenerateSchedule persists the installments of an approved loan. It runs
// under the loan row lock and fails with ErrAlreadyScheduled on a repeat call.
func (u *Usecase) GenerateSchedule(ctx context.Context, who actor.Actor, loanID string) (*ScheduleDTO, error) {
	if err := who.Require(actor.CapSchedule); err != nil {
		return nil, err
	}

	var out *ScheduleDTO
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if l.Status != loan.StatusApproved {
			return loan.ErrNotApproved
		}
		n, err := r.Installments.CountByLoan(ctx, l.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrAlreadyScheduled
		}

		approvedAt := u.now().UTC()
		if l.DecidedAt != nil {
			approvedAt = l.DecidedAt.UTC()
		}
		q, plan, err := amortization.Schedule(amortization.Terms{
			Principal:  l.Principal,
			TermMonths: l.TermMonths,
			AnnualRate: l.InterestRate,
		}, approvedAt)
		if err != nil {
			return apperr.Validation(err)
		}

		rows := make([]domain.Installment, 0, len(plan))
		for _, p := range plan {
			rows = append(rows, domain.Installment{
				InstallmentID: id.NewID32(),
				LoanID:        l.ID,
				Seq:           p.Seq,
				DueDate:       p.DueDate,
				AmountDue:     p.AmountDue,
				Status:        domain.StatusPending,
			})
		}
		if err := r.Installments.CreateBatch(ctx, rows); err != nil {
			return err
		}

		out = &ScheduleDTO{
			LoanID:         l.LoanID,
			MonthlyPayment: q.MonthlyPayment,
			TotalPayment:   q.TotalPayment,
			TotalInterest:  q.TotalInterest,
			Installments:   toDTOs(l.LoanID, rows),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RecordPayment sets the amount paid on an installment and re-evaluates its
// status. Customers may only pay installments of their own loans.
func (u *Usecase) RecordPayment(ctx context.Context, who actor.Actor, in RecordPaymentInput) (*InstallmentDTO, error) {
	if err := who.Require(actor.CapRecordPayment); err != nil {
		return nil, err
	}
	if in.AmountPaid.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}
	if in.PaidOn.IsZero() {
		return nil, domain.ErrMissingPaidOn
	}

	var out *InstallmentDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		it, err := r.Installments.GetByInstallmentIDForUpdate(ctx, in.InstallmentID)
		if err != nil {
			return err
		}
		l, err := r.Loans.GetByID(ctx, it.LoanID)
		if err != nil {
			return err
		}
		if l.UserID != who.ID {
			if err := who.Require(actor.CapViewAny); err != nil {
				return err
			}
		}

		paidOn := in.PaidOn.UTC()
		it.AmountPaid = in.AmountPaid.Round(amortization.Places)
		it.PaidOn = &paidOn
		it.Status = it.Evaluate(u.now().UTC())
		if err := r.Installments.SavePayment(ctx, it); err != nil {
			return err
		}
		dto := toDTO(l.LoanID, it)
		out = &dto
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListInstallments returns a loan's installments ordered by the requested key,
// ties broken by sequence index.
func (u *Usecase) ListInstallments(ctx context.Context, who actor.Actor, in ListInput) ([]InstallmentDTO, error) {
	l, err := u.loans.GetByLoanID(ctx, in.LoanID)
	if err != nil {
		return nil, err
	}
	if l.UserID != who.ID {
		if err := who.Require(actor.CapViewAny); err != nil {
			return nil, err
		}
	}

	f := in.Filter
	if f.SortBy == "" {
		f.SortBy = domain.SortDueDate
	}
	if f.SortOrder == "" {
		f.SortOrder = loan.Asc
	}
	rows, err := u.installments.ListByLoan(ctx, l.ID, f.Status)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(rows, f.SortBy.Comparator(f.SortOrder))
	return toDTOs(l.LoanID, rows), nil
}

// MarkOverdue flips every pending installment due before now that is not
// fully paid to late.
func (u *Usecase) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	return u.installments.MarkLate(ctx, now.UTC())
}

func toDTO(loanID string, it *domain.Installment) InstallmentDTO {
	return InstallmentDTO{
		InstallmentID: it.InstallmentID,
		LoanID:        loanID,
		Seq:           it.Seq,
		DueDate:       it.DueDate,
		AmountDue:     it.AmountDue,
		AmountPaid:    it.AmountPaid,
		PaidOn:        it.PaidOn,
		Status:        it.Status,
	}
}

func toDTOs(loanID string, rows []domain.Installment) []InstallmentDTO {
	out := make([]InstallmentDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toDTO(loanID, &rows[i]))
	}
	return out
}
