// Package ledger owns loan status transitions and the audit entries they
// produce. Every transition and its entry commit in one transaction.
package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"loan-lifecycle/internal/domain/actor"
	"loan-lifecycle/internal/domain/audit"
	"loan-lifecycle/internal/domain/loan"
	"loan-lifecycle/internal/domain/sideeffect"
	"loan-lifecycle/internal/domain/uow"
	"loan-lifecycle/pkg/id"
)

type Usecase struct {
	loans    loan.Repository
	audits   audit.Repository
	attempts sideeffect.Repository
	uow      uow.UnitOfWork
	now      func() time.Time
}

// NewUsecase: loans and audits serve reads, tx serves transitions.
func NewUsecase(loans loan.Repository, audits audit.Repository, tx uow.UnitOfWork) *Usecase {
	return &Usecase{loans: loans, audits: audits, uow: tx, now: time.Now}
}

func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	u.now = now
	return u
}

// WithAttempts enables SideEffects reads.
func (u *Usecase) WithAttempts(r sideeffect.Repository) *Usecase {
	u.attempts = r
	return u
}

// Decide moves a pending loan to approved or rejected. A loan is decided at
// most once: the row lock serializes callers and SaveDecision re-checks the
// pending status in its UPDATE.
func (u *Usecase) Decide(ctx context.Context, who actor.Actor, in DecideInput) (*Decision, error) {
	if err := who.Require(actor.CapDecide); err != nil {
		return nil, err
	}
	action, err := loan.ParseAction(string(in.Action))
	if err != nil {
		return nil, err
	}
	var reason *string
	if action == loan.ActionReject {
		r := strings.TrimSpace(in.Reason)
		if r == "" {
			return nil, loan.ErrReasonRequired
		}
		reason = &r
	}

	var out *Decision
	err = u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		if l.Status != loan.StatusPending {
			return loan.ErrInvalidTransition
		}
		at := u.now().UTC()
		l.Status = action.Target()
		l.DecidedBy = &who.ID
		l.DecidedAt = &at
		if err := r.Loans.SaveDecision(ctx, l); err != nil {
			return err
		}

		entry := &audit.Entry{
			AuditID:   id.NewID32(),
			LoanID:    l.ID,
			Action:    auditAction(action),
			ActorID:   who.ID,
			Reason:    reason,
			Timestamp: at,
		}
		if err := r.Audits.Append(ctx, entry); err != nil {
			return err
		}
		out = &Decision{Loan: *l, AuditEntryID: entry.AuditID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReviewByAgent marks a pending loan as under review. Review is advisory and
// never blocks Decide.
func (u *Usecase) ReviewByAgent(ctx context.Context, who actor.Actor, in ReviewInput) (*Decision, error) {
	if err := who.Require(actor.CapReview); err != nil {
		return nil, err
	}

	var out *Decision
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		if l.Status != loan.StatusPending {
			return loan.ErrInvalidTransition
		}
		if l.ReviewStatus != loan.ReviewPending {
			return loan.ErrReviewNotPending
		}
		at := u.now().UTC()
		comment := strings.TrimSpace(in.Comment)
		l.ReviewStatus = loan.ReviewUnderReview
		l.ReviewedBy = &who.ID
		l.ReviewedAt = &at
		l.ReviewComment = comment
		if err := r.Loans.SaveReview(ctx, l); err != nil {
			return err
		}

		entry := &audit.Entry{
			AuditID:   id.NewID32(),
			LoanID:    l.ID,
			Action:    audit.ActionReviewed,
			ActorID:   who.ID,
			Timestamp: at,
		}
		if comment != "" {
			entry.Reason = &comment
		}
		if err := r.Audits.Append(ctx, entry); err != nil {
			return err
		}
		out = &Decision{Loan: *l, AuditEntryID: entry.AuditID}
		return nil
	})
	if errors.Is(err, loan.ErrNotFound) {
		return nil, loan.ErrReviewLoanMissing
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AuditTrail lists a loan's entries oldest first.
func (u *Usecase) AuditTrail(ctx context.Context, who actor.Actor, loanID string) ([]AuditEntryDTO, error) {
	if err := who.Require(actor.CapAudit); err != nil {
		return nil, err
	}
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	entries, err := u.audits.ListByLoan(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	out := make([]AuditEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, AuditEntryDTO{
			AuditID:   e.AuditID,
			LoanID:    l.LoanID,
			Action:    e.Action,
			ActorID:   e.ActorID,
			Reason:    e.Reason,
			Timestamp: e.Timestamp,
		})
	}
	return out, nil
}

// SideEffects lists the notification and disbursement attempts recorded for
// a decided loan, for reconciliation.
func (u *Usecase) SideEffects(ctx context.Context, who actor.Actor, loanID string) ([]AttemptDTO, error) {
	if err := who.Require(actor.CapAudit); err != nil {
		return nil, err
	}
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	out := []AttemptDTO{}
	if u.attempts == nil {
		return out, nil
	}
	rows, err := u.attempts.ListByLoan(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	for _, a := range rows {
		out = append(out, AttemptDTO{LoanID: l.LoanID, Attempt: a})
	}
	return out, nil
}

func auditAction(a loan.Action) audit.Action {
	if a == loan.ActionApprove {
		return audit.ActionApproved
	}
	return audit.ActionRejected
}
