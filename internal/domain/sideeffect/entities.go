package sideeffect

import (
	"fmt"
	"time"
)

type Effect string

const (
	EffectNotification Effect = "notification"
	EffectDisbursement Effect = "disbursement"
)

type Outcome string

const (
	OutcomeInFlight  Outcome = "in_flight"
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	// OutcomeSkipped: the effect was already claimed for this loan, or could not be claimed.
	OutcomeSkipped Outcome = "skipped"
)

// Table: side_effect_attempts. (loan_id, effect) is unique so an effect is
// attempted at most once per decision.
type Attempt struct {
	ID        uint64     `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	LoanID    uint64     `gorm:"column:loan_id;not null;uniqueIndex:ux_attempts_loan_effect" json:"-"`
	Effect    Effect     `gorm:"column:effect;type:varchar(16);not null;uniqueIndex:ux_attempts_loan_effect" json:"effect"`
	Outcome   Outcome    `gorm:"column:outcome;type:varchar(16);not null" json:"outcome"`
	Reference string     `gorm:"column:reference;size:128" json:"reference,omitempty"`
	Detail    string     `gorm:"column:detail;type:text" json:"detail,omitempty"`
	StartedAt time.Time  `gorm:"column:started_at;not null" json:"started_at"`
	EndedAt   *time.Time `gorm:"column:ended_at" json:"ended_at,omitempty"`
}

func (Attempt) TableName() string { return "side_effect_attempts" }

// Failure records a side effect that did not complete. It is reported for
// reconciliation and never fails the decision that triggered it.
type Failure struct {
	LoanID string
	Effect Effect
	Err    error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s for loan %s failed: %v", f.Effect, f.LoanID, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }
