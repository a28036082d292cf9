package mysql

import (
	"context"

	"gorm.io/gorm"

	auditDomain "loan-lifecycle/internal/domain/audit"
)

type AuditRepository struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) *AuditRepository { return &AuditRepository{db: db} }

func (r *AuditRepository) Append(ctx context.Context, e *auditDomain.Entry) error {
	return wrap(r.db.WithContext(ctx).Create(e).Error, nil)
}

func (r *AuditRepository) ListByLoan(ctx context.Context, loanNumericID uint64) ([]auditDomain.Entry, error) {
	var out []auditDomain.Entry
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanNumericID).
		Order("timestamp ASC, id ASC").
		Find(&out).Error
	return out, wrap(err, nil)
}
