package repayment

import (
	"time"

	"github.com/shopspring/decimal"

	domain "loan-lifecycle/internal/domain/repayment"
)

type RecordPaymentInput struct {
	InstallmentID string
	AmountPaid    decimal.Decimal
	PaidOn        time.Time
}

type ListInput struct {
	LoanID string
	Filter domain.ListFilter
}

type InstallmentDTO struct {
	InstallmentID string          `json:"installment_id"`
	LoanID        string          `json:"loan_id"`
	Seq           int             `json:"seq"`
	DueDate       time.Time       `json:"due_date"`
	AmountDue     decimal.Decimal `json:"amount_due"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	PaidOn        *time.Time      `json:"paid_on,omitempty"`
	Status        domain.Status   `json:"status"`
}

type ScheduleDTO struct {
	LoanID         string           `json:"loan_id"`
	MonthlyPayment decimal.Decimal  `json:"monthly_payment"`
	TotalPayment   decimal.Decimal  `json:"total_payment"`
	TotalInterest  decimal.Decimal  `json:"total_interest"`
	Installments   []InstallmentDTO `json:"installments"`
}
