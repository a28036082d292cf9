package mysql

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	auditDomain "loan-lifecycle/internal/domain/audit"
	loanDomain "loan-lifecycle/internal/domain/loan"
	sideeffectDomain "loan-lifecycle/internal/domain/sideeffect"
	"loan-lifecycle/pkg/id"
)

// --- SQLite-friendly schema only for tests (numeric money columns) ---

type loanSQLite struct {
	ID            uint64     `gorm:"primaryKey;column:id"`
	LoanID        string     `gorm:"size:32;uniqueIndex;column:loan_id"`
	UserID        string     `gorm:"size:32;column:user_id"`
	Principal     string     `gorm:"type:numeric;column:principal"`
	TermMonths    int        `gorm:"column:term_months"`
	InterestRate  string     `gorm:"type:numeric;column:interest_rate"`
	Status        string     `gorm:"type:text;column:status;default:pending"`
	ReviewStatus  string     `gorm:"type:text;column:review_status;default:pending"`
	ReviewedBy    *string    `gorm:"column:reviewed_by"`
	ReviewedAt    *time.Time `gorm:"column:reviewed_at"`
	ReviewComment string     `gorm:"column:review_comment"`
	DecidedBy     *string    `gorm:"column:decided_by"`
	DecidedAt     *time.Time `gorm:"column:decided_at"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (loanSQLite) TableName() string { return "loans" }

type installmentSQLite struct {
	ID            uint64     `gorm:"primaryKey;column:id;autoIncrement"`
	InstallmentID string     `gorm:"size:32;uniqueIndex;column:installment_id"`
	LoanID        uint64     `gorm:"column:loan_id;uniqueIndex:ux_loan_seq"`
	Seq           int        `gorm:"column:seq;uniqueIndex:ux_loan_seq"`
	DueDate       time.Time  `gorm:"column:due_date"`
	AmountDue     string     `gorm:"type:numeric;column:amount_due"`
	AmountPaid    string     `gorm:"type:numeric;column:amount_paid;default:0"`
	PaidOn        *time.Time `gorm:"column:paid_on"`
	Status        string     `gorm:"type:text;column:status;default:pending"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (installmentSQLite) TableName() string { return "installments" }

// openTestDB creates a file-backed sqlite DB and migrates the sqlite-safe schema.
// A single connection keeps transactions serialized like row locks would.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loans.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	// IMPORTANT: migrate the sqlite-safe models for loans and installments.
	if err := db.AutoMigrate(&loanSQLite{}, &installmentSQLite{}, &auditDomain.Entry{}, &sideeffectDomain.Attempt{}); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func makeLoan(userID string) *loanDomain.Loan {
	return &loanDomain.Loan{
		LoanID:       id.NewID32(),
		UserID:       userID,
		Principal:    decimal.RequireFromString("1200.00"),
		TermMonths:   12,
		InterestRate: decimal.Zero,
		Status:       loanDomain.StatusPending,
		ReviewStatus: loanDomain.ReviewPending,
	}
}

func seedLoan(t *testing.T, db *gorm.DB, userID string) *loanDomain.Loan {
	t.Helper()
	l := makeLoan(userID)
	if err := NewLoanRepository(db).Create(t.Context(), l); err != nil {
		t.Fatalf("seed loan: %v", err)
	}
	return l
}
