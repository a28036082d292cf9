package ledger

import (
	"time"

	"loan-lifecycle/internal/domain/audit"
	"loan-lifecycle/internal/domain/loan"
	"loan-lifecycle/internal/domain/sideeffect"
)

type DecideInput struct {
	LoanID string
	Action loan.Action
	// Reason is mandatory for rejections and ignored for approvals.
	Reason string
}

type ReviewInput struct {
	LoanID  string
	Comment string
}

// Decision is what a committed transition returns to the caller.
type Decision struct {
	Loan         loan.Loan `json:"loan"`
	AuditEntryID string    `json:"audit_entry_id"`
}

type AuditEntryDTO struct {
	AuditID   string       `json:"audit_id"`
	LoanID    string       `json:"loan_id"`
	Action    audit.Action `json:"action"`
	ActorID   string       `json:"actor_id"`
	Reason    *string      `json:"reason,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

type AttemptDTO struct {
	LoanID string `json:"loan_id"`
	sideeffect.Attempt
}
