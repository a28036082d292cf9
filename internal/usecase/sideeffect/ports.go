package sideeffect

import (
	"context"

	"github.com/shopspring/decimal"
)

// UserDirectory resolves where a user is contacted.
type UserDirectory interface {
	ContactAddress(ctx context.Context, userID string) (string, error)
}

type Sender interface {
	Send(ctx context.Context, address, subject, body string) error
}

type DisbursementRequest struct {
	UserID string
	LoanID string
	Amount decimal.Decimal
	// IdempotencyKey is stable per loan so a repeated request never pays twice.
	IdempotencyKey string
}

// DisbursementGateway returns the transfer's confirmation reference.
type DisbursementGateway interface {
	Disburse(ctx context.Context, req DisbursementRequest) (string, error)
}
