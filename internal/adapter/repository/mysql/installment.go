package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	repaymentDomain "loan-lifecycle/internal/domain/repayment"
)

type InstallmentRepository struct{ db *gorm.DB }

func NewInstallmentRepository(db *gorm.DB) *InstallmentRepository {
	return &InstallmentRepository{db: db}
}

func (r *InstallmentRepository) CreateBatch(ctx context.Context, items []repaymentDomain.Installment) error {
	if len(items) == 0 {
		return nil
	}
	return wrap(r.db.WithContext(ctx).Create(&items).Error, nil)
}

func (r *InstallmentRepository) CountByLoan(ctx context.Context, loanNumericID uint64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&repaymentDomain.Installment{}).Where("loan_id = ?", loanNumericID).Count(&n).Error
	return n, wrap(err, nil)
}

func (r *InstallmentRepository) ListByLoan(ctx context.Context, loanNumericID uint64, status *repaymentDomain.Status) ([]repaymentDomain.Installment, error) {
	q := r.db.WithContext(ctx).Where("loan_id = ?", loanNumericID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var out []repaymentDomain.Installment
	err := q.Order("seq ASC").Find(&out).Error
	return out, wrap(err, nil)
}

func (r *InstallmentRepository) GetByInstallmentID(ctx context.Context, installmentID string) (*repaymentDomain.Installment, error) {
	var out repaymentDomain.Installment
	if err := r.db.WithContext(ctx).Where("installment_id = ?", installmentID).First(&out).Error; err != nil {
		return nil, wrap(err, repaymentDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *InstallmentRepository) GetByInstallmentIDForUpdate(ctx context.Context, installmentID string) (*repaymentDomain.Installment, error) {
	var out repaymentDomain.Installment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("installment_id = ?", installmentID).
		First(&out).Error
	if err != nil {
		return nil, wrap(err, repaymentDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *InstallmentRepository) SavePayment(ctx context.Context, in *repaymentDomain.Installment) error {
	err := r.db.WithContext(ctx).
		Model(&repaymentDomain.Installment{}).
		Where("id = ?", in.ID).
		Updates(map[string]any{
			"amount_paid": in.AmountPaid,
			"paid_on":     in.PaidOn,
			"status":      in.Status,
		}).Error
	return wrap(err, nil)
}

func (r *InstallmentRepository) MarkLate(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&repaymentDomain.Installment{}).
		Where("status = ? AND due_date < ? AND amount_paid < amount_due", repaymentDomain.StatusPending, now).
		Update("status", repaymentDomain.StatusLate)
	return res.RowsAffected, wrap(res.Error, nil)
}
