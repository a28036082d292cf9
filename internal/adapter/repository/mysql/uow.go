package mysql

import (
	"context"

	"gorm.io/gorm"

	"loan-lifecycle/internal/domain/apperr"
	"loan-lifecycle/internal/domain/loan"
	"loan-lifecycle/internal/domain/uow"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func repos(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Loans:        &LoanRepository{db: tx},
		Audits:       &AuditRepository{db: tx},
		Installments: &InstallmentRepository{db: tx},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(repos(tx))
	})
	return commitErr(err)
}

func (u *GormUoW) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := repos(tx)
		// lock the loan row up-front to prevent races
		l, err := r.Loans.GetByLoanIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		return fn(r, l)
	})
	return commitErr(err)
}

// commitErr classifies failures that did not come from a repository or a
// domain check, such as a failed COMMIT.
func commitErr(err error) error {
	if err == nil || apperr.Known(err) {
		return err
	}
	return apperr.Persistence(err)
}
