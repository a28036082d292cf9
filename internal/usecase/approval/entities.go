package approval

import (
	"loan-lifecycle/internal/domain/loan"
	"loan-lifecycle/internal/domain/sideeffect"
	"loan-lifecycle/internal/usecase/repayment"
)

// Result is returned once the decision is durable. Schedule is nil for
// rejections and when generation failed; side effect failures never turn a
// committed decision into an error.
type Result struct {
	Loan          loan.Loan              `json:"loan"`
	AuditEntryID  string                 `json:"audit_entry_id"`
	Schedule      *repayment.ScheduleDTO `json:"schedule,omitempty"`
	ScheduleError string                 `json:"schedule_error,omitempty"`
	SideEffects   []sideeffect.Attempt   `json:"side_effects"`
}
