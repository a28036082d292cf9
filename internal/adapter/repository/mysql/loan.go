package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	loanDomain "loan-lifecycle/internal/domain/loan"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return wrap(r.db.WithContext(ctx).Create(l).Error, nil)
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	if err := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out).Error; err != nil {
		return nil, wrap(err, loanDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *LoanRepository) GetByID(ctx context.Context, id uint64) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	if err := r.db.WithContext(ctx).First(&out, id).Error; err != nil {
		return nil, wrap(err, loanDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *LoanRepository) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("loan_id = ?", loanID).
		First(&out).Error
	if err != nil {
		return nil, wrap(err, loanDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *LoanRepository) ListByUser(ctx context.Context, userID string, f loanDomain.ListFilter) ([]loanDomain.Loan, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		db = db.Where("user_id = ?", userID)
		if f.Status != nil {
			db = db.Where("status = ?", *f.Status)
		}
		if f.CreatedAfter != nil {
			db = db.Where("created_at >= ?", *f.CreatedAfter)
		}
		if f.CreatedBefore != nil {
			db = db.Where("created_at <= ?", *f.CreatedBefore)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&loanDomain.Loan{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, wrap(err, nil)
	}

	var out []loanDomain.Loan
	err := r.db.WithContext(ctx).
		Scopes(filter).
		Order(clause.OrderByColumn{Column: clause.Column{Name: f.SortBy.Column()}, Desc: f.SortOrder == loanDomain.Desc}).
		Order("id ASC").
		Offset(f.Skip).
		Limit(f.Limit).
		Find(&out).Error
	if err != nil {
		return nil, 0, wrap(err, nil)
	}
	return out, total, nil
}

func (r *LoanRepository) SaveDecision(ctx context.Context, l *loanDomain.Loan) error {
	res := r.db.WithContext(ctx).
		Model(&loanDomain.Loan{}).
		Where("id = ? AND status = ?", l.ID, loanDomain.StatusPending).
		Updates(map[string]any{
			"status":     l.Status,
			"decided_by": l.DecidedBy,
			"decided_at": l.DecidedAt,
		})
	if res.Error != nil {
		return wrap(res.Error, nil)
	}
	if res.RowsAffected == 0 {
		return loanDomain.ErrInvalidTransition
	}
	return nil
}

func (r *LoanRepository) SaveReview(ctx context.Context, l *loanDomain.Loan) error {
	res := r.db.WithContext(ctx).
		Model(&loanDomain.Loan{}).
		Where("id = ? AND review_status = ? AND status = ?", l.ID, loanDomain.ReviewPending, loanDomain.StatusPending).
		Updates(map[string]any{
			"review_status":  l.ReviewStatus,
			"reviewed_by":    l.ReviewedBy,
			"reviewed_at":    l.ReviewedAt,
			"review_comment": l.ReviewComment,
		})
	if res.Error != nil {
		return wrap(res.Error, nil)
	}
	if res.RowsAffected == 0 {
		return loanDomain.ErrReviewNotPending
	}
	return nil
}
