// Package approval sequences a loan decision: the ledger transition commits
// first, then the schedule is generated for approvals, then side effects run.
package approval

import (
	"context"
	"log/slog"
	"strings"

	"loan-lifecycle/internal/domain/actor"
	"loan-lifecycle/internal/domain/loan"
	"loan-lifecycle/internal/usecase/ledger"
	"loan-lifecycle/internal/usecase/repayment"
	"loan-lifecycle/internal/usecase/sideeffect"
)

type Decider interface {
	Decide(ctx context.Context, who actor.Actor, in ledger.DecideInput) (*ledger.Decision, error)
}

type Scheduler interface {
	GenerateSchedule(ctx context.Context, who actor.Actor, loanID string) (*repayment.ScheduleDTO, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, ev sideeffect.Event) *sideeffect.Report
}

type Usecase struct {
	ledger    Decider
	schedules Scheduler
	effects   Dispatcher
	log       *slog.Logger
}

func NewUsecase(d Decider, s Scheduler, e Dispatcher, log *slog.Logger) *Usecase {
	if log == nil {
		log = slog.Default()
	}
	return &Usecase{ledger: d, schedules: s, effects: e, log: log}
}

// Decide returns an error only when the decision itself did not commit.
func (u *Usecase) Decide(ctx context.Context, who actor.Actor, in ledger.DecideInput) (*Result, error) {
	d, err := u.ledger.Decide(ctx, who, in)
	if err != nil {
		return nil, err
	}
	log := u.log.With(slog.String("loan_id", d.Loan.LoanID), slog.String("status", string(d.Loan.Status)))
	log.Info("loan decided", slog.String("actor_id", who.ID), slog.String("audit_id", d.AuditEntryID))

	res := &Result{Loan: d.Loan, AuditEntryID: d.AuditEntryID}
	if d.Loan.Status == loan.StatusApproved {
		sched, err := u.schedules.GenerateSchedule(ctx, who, d.Loan.LoanID)
		if err != nil {
			// the loan stays approved; the schedule can be generated again on its own
			log.Error("schedule generation failed", slog.Any("error", err))
			res.ScheduleError = err.Error()
		} else {
			res.Schedule = sched
		}
	}

	rep := u.effects.Dispatch(ctx, sideeffect.Event{Loan: d.Loan, Action: in.Action, Reason: strings.TrimSpace(in.Reason)})
	res.SideEffects = rep.Attempts
	if !rep.OK() {
		log.Warn("side effects need reconciliation", slog.Int("failures", len(rep.Failures)))
	}
	return res, nil
}
