package audit

import (
	"time"
)

type Action string

const (
	ActionApproved Action = "approved"
	ActionRejected Action = "rejected"
	ActionReviewed Action = "reviewed"
)

// Table: loan_audit_log. Rows are append-only.
type Entry struct {
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	// Public identifier (32-char lowercase hex)
	AuditID string `gorm:"column:audit_id;type:char(32);not null;uniqueIndex:ux_audit_audit_id" json:"audit_id"`
	// FK to loans.id (numeric)
	LoanID    uint64    `gorm:"column:loan_id;not null;index:idx_audit_loan" json:"-"`
	Action    Action    `gorm:"column:action;type:varchar(16);not null" json:"action"`
	ActorID   string    `gorm:"column:actor_id;type:char(32);not null" json:"actor_id"`
	Reason    *string   `gorm:"column:reason;type:text" json:"reason,omitempty"`
	Timestamp time.Time `gorm:"column:timestamp;not null;index:idx_audit_loan" json:"timestamp"`
}

func (Entry) TableName() string { return "loan_audit_log" }
