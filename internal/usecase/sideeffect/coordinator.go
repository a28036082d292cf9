// Package sideeffect runs the notification and disbursement that follow a
// committed loan decision. Failures are reported, never returned.
package sideeffect

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"loan-lifecycle/internal/domain/loan"
	domain "loan-lifecycle/internal/domain/sideeffect"
)

const DefaultTimeout = 5 * time.Second

var disbursementNamespace = uuid.MustParse("6f1c3f6e-8d5b-4c53-9a57-2b0b4e6f9d10")

// IdempotencyKey derives the disbursement key from the public loan id.
func IdempotencyKey(loanID string) string {
	return uuid.NewSHA1(disbursementNamespace, []byte(loanID)).String()
}

// Event is a committed decision.
type Event struct {
	Loan   loan.Loan
	Action loan.Action
	Reason string
}

// Report collects what happened to each effect of one decision.
type Report struct {
	LoanID   string            `json:"loan_id"`
	Attempts []domain.Attempt  `json:"attempts"`
	Failures []*domain.Failure `json:"-"`
}

func (r *Report) OK() bool { return len(r.Failures) == 0 }

type Coordinator struct {
	users    UserDirectory
	sender   Sender
	gateway  DisbursementGateway
	attempts domain.Repository
	timeout  time.Duration
	log      *slog.Logger
	now      func() time.Time
}

func NewCoordinator(users UserDirectory, sender Sender, gateway DisbursementGateway, attempts domain.Repository, timeout time.Duration, log *slog.Logger) *Coordinator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{
		users:    users,
		sender:   sender,
		gateway:  gateway,
		attempts: attempts,
		timeout:  timeout,
		log:      log,
		now:      time.Now,
	}
}

// Dispatch notifies the owner and, for approvals, disburses the principal.
// Both effects run concurrently and each is attempted at most once per loan.
// Cancelling ctx does not abort effects already in flight.
func (c *Coordinator) Dispatch(ctx context.Context, ev Event) *Report {
	ctx = context.WithoutCancel(ctx)
	rep := &Report{LoanID: ev.Loan.LoanID}
	var mu sync.Mutex
	record := func(a domain.Attempt, f *domain.Failure) {
		mu.Lock()
		defer mu.Unlock()
		rep.Attempts = append(rep.Attempts, a)
		if f != nil {
			rep.Failures = append(rep.Failures, f)
		}
	}

	var g errgroup.Group
	g.Go(func() error {
		record(c.run(ctx, ev, domain.EffectNotification, c.notify))
		return nil
	})
	if ev.Action == loan.ActionApprove {
		g.Go(func() error {
			record(c.run(ctx, ev, domain.EffectDisbursement, c.disburse))
			return nil
		})
	}
	_ = g.Wait()
	return rep
}

func (c *Coordinator) run(ctx context.Context, ev Event, effect domain.Effect, fn func(context.Context, Event) (string, error)) (domain.Attempt, *domain.Failure) {
	log := c.log.With(slog.String("loan_id", ev.Loan.LoanID), slog.String("effect", string(effect)))
	a := domain.Attempt{
		LoanID:    ev.Loan.ID,
		Effect:    effect,
		Outcome:   domain.OutcomeInFlight,
		StartedAt: c.now().UTC(),
	}

	claimed, err := c.attempts.Claim(ctx, &a)
	if err != nil {
		// unclaimed effects never run
		a.Outcome = domain.OutcomeSkipped
		a.Detail = err.Error()
		log.Error("side effect not claimed", slog.Any("error", err))
		return a, &domain.Failure{LoanID: ev.Loan.LoanID, Effect: effect, Err: err}
	}
	if !claimed {
		a.Outcome = domain.OutcomeSkipped
		log.Info("side effect already attempted")
		return a, nil
	}

	ref, err := call(ctx, ev, fn)
	end := c.now().UTC()
	a.EndedAt = &end
	a.Reference = ref
	var failure *domain.Failure
	if err != nil {
		a.Outcome = domain.OutcomeFailed
		a.Detail = err.Error()
		failure = &domain.Failure{LoanID: ev.Loan.LoanID, Effect: effect, Err: err}
		log.Warn("side effect failed", slog.Any("error", err))
	} else {
		a.Outcome = domain.OutcomeSucceeded
		log.Info("side effect succeeded", slog.String("reference", ref))
	}

	if err := c.attempts.Finish(ctx, &a); err != nil {
		log.Error("side effect outcome not recorded", slog.String("outcome", string(a.Outcome)), slog.Any("error", err))
	}
	return a, failure
}

// call turns a panicking effect into an ordinary failure.
func call(ctx context.Context, ev Event, fn func(context.Context, Event) (string, error)) (ref string, err error) {
	defer func() {
		if r := recover(); r != nil {
			ref, err = "", fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, ev)
}

func (c *Coordinator) notify(ctx context.Context, ev Event) (string, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, c.timeout)
	addr, err := c.users.ContactAddress(lookupCtx, ev.Loan.UserID)
	cancel()
	if err != nil {
		return "", fmt.Errorf("lookup contact address: %w", err)
	}

	subject, body := message(ev)
	sendCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.sender.Send(sendCtx, addr, subject, body); err != nil {
		return "", fmt.Errorf("send to %s: %w", addr, err)
	}
	return addr, nil
}

func (c *Coordinator) disburse(ctx context.Context, ev Event) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ref, err := c.gateway.Disburse(callCtx, DisbursementRequest{
		UserID:         ev.Loan.UserID,
		LoanID:         ev.Loan.LoanID,
		Amount:         ev.Loan.Principal,
		IdempotencyKey: IdempotencyKey(ev.Loan.LoanID),
	})
	if err != nil {
		return "", fmt.Errorf("disburse: %w", err)
	}
	return ref, nil
}

func message(ev Event) (subject, body string) {
	if ev.Action == loan.ActionApprove {
		return "Loan Approved", fmt.Sprintf("Your loan #%s has been approved.", ev.Loan.LoanID)
	}
	return "Loan Rejected", fmt.Sprintf("Unfortunately, your loan #%s was rejected. Reason: %s", ev.Loan.LoanID, ev.Reason)
}
