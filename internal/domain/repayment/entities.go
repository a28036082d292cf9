package repayment

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"loan-lifecycle/internal/domain/apperr"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusLate    Status = "late"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusPaid, StatusLate:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: unknown installment status %q", apperr.ErrValidation, s)
}

// Table: installments. One row per scheduled payment, created in bulk once per
// loan; (loan_id, seq) is unique.
type Installment struct {
	ID            uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	InstallmentID string          `gorm:"column:installment_id;type:char(32);not null;uniqueIndex:ux_installments_public_id" json:"installment_id"`
	LoanID        uint64          `gorm:"column:loan_id;not null;uniqueIndex:ux_installments_loan_seq" json:"-"`
	Seq           int             `gorm:"column:seq;not null;uniqueIndex:ux_installments_loan_seq" json:"seq"`
	DueDate       time.Time       `gorm:"column:due_date;not null;index" json:"due_date"`
	AmountDue     decimal.Decimal `gorm:"column:amount_due;type:decimal(18,2);not null" json:"amount_due"`
	AmountPaid    decimal.Decimal `gorm:"column:amount_paid;type:decimal(18,2);not null;default:0" json:"amount_paid"`
	PaidOn        *time.Time      `gorm:"column:paid_on" json:"paid_on,omitempty"`
	Status        Status          `gorm:"column:status;type:varchar(16);default:'pending'" json:"status"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Installment) TableName() string { return "installments" }

// Evaluate derives the status from the amounts and the due date. A payment
// that covers the amount due always wins over lateness.
func (in Installment) Evaluate(now time.Time) Status {
	switch {
	case in.AmountPaid.GreaterThanOrEqual(in.AmountDue):
		return StatusPaid
	case in.DueDate.Before(now):
		return StatusLate
	default:
		return StatusPending
	}
}
