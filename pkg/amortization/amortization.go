// Package amortization computes fixed monthly payments and repayment schedules.
//
// Money is handled with shopspring/decimal and rounded to two decimal places
// using round-half-up (away from zero). All functions are pure.
package amortization

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("principal must be greater than zero")
	ErrInvalidTerm   = errors.New("term must be between 1 and 600 months")
	ErrInvalidRate   = errors.New("interest rate must not be negative")
)

// Currency minor-unit precision.
const Places = 2

// MaxTermMonths bounds the term; the exact (1+i)^n grows with n.
const MaxTermMonths = 600

// Installments are spaced this far apart, the first one this far after approval.
const Period = 30 * 24 * time.Hour

var (
	hundred = decimal.NewFromInt(100)
	cent    = decimal.New(1, -Places)
	twelve  = decimal.NewFromInt(12)
)

type Terms struct {
	Principal  decimal.Decimal
	TermMonths int
	// AnnualRate is a nominal percentage, e.g. 12 for 12%.
	AnnualRate decimal.Decimal
}

type Quote struct {
	MonthlyPayment decimal.Decimal
	TotalPayment   decimal.Decimal
	TotalInterest  decimal.Decimal
}

type Installment struct {
	Seq       int
	DueDate   time.Time
	AmountDue decimal.Decimal
}

func (t Terms) validate() error {
	if t.TermMonths <= 0 || t.TermMonths > MaxTermMonths {
		return ErrInvalidTerm
	}
	if !t.Principal.IsPositive() {
		return ErrInvalidAmount
	}
	if t.AnnualRate.IsNegative() {
		return ErrInvalidRate
	}
	return nil
}

// MonthlyRate converts the annual percentage into a monthly fraction.
func (t Terms) MonthlyRate() decimal.Decimal {
	return t.AnnualRate.Div(hundred).Div(twelve)
}

// Calculate returns the rounded monthly payment and the loan totals.
//
// With a zero rate the principal is split evenly and the total equals the
// principal. Otherwise the total is the rounded payment times the term. When
// rounding half-up would leave that total at or below the principal (tiny
// rates), the payment is raised by one cent so interest stays positive.
func Calculate(t Terms) (Quote, error) {
	if err := t.validate(); err != nil {
		return Quote{}, err
	}
	n := decimal.NewFromInt(int64(t.TermMonths))
	i := t.MonthlyRate()

	if i.IsZero() {
		return Quote{
			MonthlyPayment: t.Principal.Div(n).Round(Places),
			TotalPayment:   t.Principal.Round(Places),
			TotalInterest:  decimal.Zero,
		}, nil
	}

	// M = P*i / (1 - (1+i)^-n) == P*i*f / (f - 1) with f = (1+i)^n
	f := decimal.NewFromInt(1).Add(i).Pow(n)
	m := t.Principal.Mul(i).Mul(f).Div(f.Sub(decimal.NewFromInt(1))).Round(Places)
	if m.Mul(n).LessThanOrEqual(t.Principal) {
		m = m.Add(cent)
	}
	total := m.Mul(n)

	return Quote{
		MonthlyPayment: m,
		TotalPayment:   total,
		TotalInterest:  total.Sub(t.Principal).Round(Places),
	}, nil
}

// Schedule builds the installments for a loan approved at approvedAt. Every
// installment carries the monthly payment except the last one, which absorbs
// the difference between the quoted total and the accumulated payments.
func Schedule(t Terms, approvedAt time.Time) (Quote, []Installment, error) {
	q, err := Calculate(t)
	if err != nil {
		return Quote{}, nil, err
	}

	out := make([]Installment, t.TermMonths)
	accumulated := decimal.Zero
	for k := 1; k <= t.TermMonths; k++ {
		amount := q.MonthlyPayment
		if k == t.TermMonths {
			amount = q.TotalPayment.Sub(accumulated)
		}
		accumulated = accumulated.Add(amount)
		out[k-1] = Installment{
			Seq:       k,
			DueDate:   approvedAt.Add(time.Duration(k) * Period),
			AmountDue: amount,
		}
	}
	return q, out, nil
}

// PayoffDate is the due date of the final installment.
func PayoffDate(approvedAt time.Time, termMonths int) time.Time {
	return approvedAt.Add(time.Duration(termMonths) * Period)
}
