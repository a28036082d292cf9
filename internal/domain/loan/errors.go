package loan

import (
	"fmt"

	"loan-lifecycle/internal/domain/apperr"
)

var (
	ErrNotFound          = fmt.Errorf("loan %w", apperr.ErrNotFound)
	ErrInvalidTransition = fmt.Errorf("%w: loan is not pending", apperr.ErrInvalidState)
	ErrReviewNotPending  = fmt.Errorf("%w: loan review is not pending", apperr.ErrInvalidState)
	// ErrReviewLoanMissing classifies as both not found and invalid state.
	ErrReviewLoanMissing = fmt.Errorf("%w: %w", ErrNotFound, apperr.ErrInvalidState)
	ErrReasonRequired    = fmt.Errorf("%w: rejection reason is required", apperr.ErrValidation)
	ErrNotApproved       = fmt.Errorf("%w: loan is not approved", apperr.ErrInvalidState)
)
