package loan

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"loan-lifecycle/internal/domain/apperr"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: unknown loan status %q", apperr.ErrValidation, s)
}

// ReviewStatus is advisory metadata set by an agent before the admin decides.
type ReviewStatus string

const (
	ReviewPending     ReviewStatus = "pending"
	ReviewUnderReview ReviewStatus = "under_review"
)

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionApprove, ActionReject:
		return Action(s), nil
	}
	return "", fmt.Errorf("%w: unknown action %q", apperr.ErrValidation, s)
}

// Target is the terminal status an action moves a pending loan to.
func (a Action) Target() Status {
	if a == ActionApprove {
		return StatusApproved
	}
	return StatusRejected
}

// DefaultInterestRate applies when an application omits the rate.
var DefaultInterestRate = decimal.NewFromInt(15)

// Table: loans. Installments and audit entries reference loans.id; loans are
// never deleted.
type Loan struct {
	ID            uint64          `gorm:"primaryKey;column:id" json:"-"`
	LoanID        string          `gorm:"size:32;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	UserID        string          `gorm:"size:32;index:idx_loans_user" json:"user_id"`
	Principal     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"principal"`
	TermMonths    int             `gorm:"not null" json:"term_months"`
	InterestRate  decimal.Decimal `gorm:"type:decimal(6,3);not null" json:"interest_rate"`
	Status        Status          `gorm:"type:varchar(16);default:'pending';index:idx_loans_user" json:"status"`
	ReviewStatus  ReviewStatus    `gorm:"type:varchar(16);default:'pending'" json:"review_status"`
	ReviewedBy    *string         `gorm:"size:32" json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time      `json:"reviewed_at,omitempty"`
	ReviewComment string          `gorm:"type:text" json:"review_comment,omitempty"`
	DecidedBy     *string         `gorm:"size:32" json:"decided_by,omitempty"`
	DecidedAt     *time.Time      `json:"decided_at,omitempty"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }
