package loan

import (
	"time"

	"github.com/shopspring/decimal"

	domain "loan-lifecycle/internal/domain/loan"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

type ApplyInput struct {
	Amount     decimal.Decimal
	TermMonths int
	// InterestRate defaults to domain.DefaultInterestRate when nil.
	InterestRate *decimal.Decimal
}

type ListInput struct {
	UserID string
	Filter domain.ListFilter
}

type EstimateInput struct {
	Amount       decimal.Decimal
	TermMonths   int
	InterestRate decimal.Decimal
}

type LoanDTO struct {
	LoanID         string          `json:"loan_id"`
	UserID         string          `json:"user_id"`
	Principal      decimal.Decimal `json:"principal"`
	TermMonths     int             `json:"term_months"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	Status         string          `json:"status"`
	ReviewStatus   string          `json:"review_status"`
	ReviewedBy     *string         `json:"reviewed_by,omitempty"`
	DecidedBy      *string         `json:"decided_by,omitempty"`
	DecidedAt      *time.Time      `json:"decided_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

type PageDTO struct {
	Items []LoanDTO `json:"items"`
	Total int64     `json:"total"`
	Skip  int       `json:"skip"`
	Limit int       `json:"limit"`
}

type EstimateDTO struct {
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	TotalPayment   decimal.Decimal `json:"total_payment"`
	TotalInterest  decimal.Decimal `json:"total_interest"`
	PayoffDate     time.Time       `json:"payoff_date"`
}
