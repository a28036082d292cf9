package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	sideeffectDomain "loan-lifecycle/internal/domain/sideeffect"
)

type AttemptRepository struct{ db *gorm.DB }

func NewAttemptRepository(db *gorm.DB) *AttemptRepository { return &AttemptRepository{db: db} }

func (r *AttemptRepository) Claim(ctx context.Context, a *sideeffectDomain.Attempt) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(a)
	if res.Error != nil {
		return false, wrap(res.Error, nil)
	}
	return res.RowsAffected > 0, nil
}

func (r *AttemptRepository) Finish(ctx context.Context, a *sideeffectDomain.Attempt) error {
	err := r.db.WithContext(ctx).
		Model(&sideeffectDomain.Attempt{}).
		Where("id = ?", a.ID).
		Updates(map[string]any{
			"outcome":   a.Outcome,
			"reference": a.Reference,
			"detail":    a.Detail,
			"ended_at":  a.EndedAt,
		}).Error
	return wrap(err, nil)
}

func (r *AttemptRepository) ListByLoan(ctx context.Context, loanNumericID uint64) ([]sideeffectDomain.Attempt, error) {
	var out []sideeffectDomain.Attempt
	err := r.db.WithContext(ctx).Where("loan_id = ?", loanNumericID).Order("id ASC").Find(&out).Error
	return out, wrap(err, nil)
}
