package repayment

import (
	"fmt"

	"loan-lifecycle/internal/domain/apperr"
)

var (
	ErrNotFound         = fmt.Errorf("installment %w", apperr.ErrNotFound)
	ErrAlreadyScheduled = fmt.Errorf("%w: loan already has a repayment schedule", apperr.ErrInvalidState)
	ErrInvalidAmount    = fmt.Errorf("%w: amount paid must not be negative", apperr.ErrValidation)
	ErrMissingPaidOn    = fmt.Errorf("%w: paid_on is required", apperr.ErrValidation)
)
