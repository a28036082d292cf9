package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"loan-lifecycle/internal/domain/apperr"
	auditDomain "loan-lifecycle/internal/domain/audit"
	loanDomain "loan-lifecycle/internal/domain/loan"
	"loan-lifecycle/internal/domain/uow"
	"loan-lifecycle/pkg/id"
)

func makeAuditEntry(loanNumericID uint64, action auditDomain.Action) *auditDomain.Entry {
	return &auditDomain.Entry{
		AuditID:   id.NewID32(),
		LoanID:    loanNumericID,
		Action:    action,
		ActorID:   "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		Timestamp: time.Now().UTC(),
	}
}

// ----------------------------- Tests -----------------------------

func TestGormUoW_WithinTx_Commit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	loanRepo := NewLoanRepository(db)
	auditRepo := NewAuditRepository(db)

	l := makeLoan("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	err := guow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		if l.ID == 0 {
			t.Fatalf("loan auto ID not set")
		}
		return r.Audits.Append(ctx, makeAuditEntry(l.ID, auditDomain.ActionReviewed))
	})
	if err != nil {
		t.Fatalf("WithinTx commit err: %v", err)
	}

	// Verify post-commit visibility
	if _, err := loanRepo.GetByLoanID(ctx, l.LoanID); err != nil {
		t.Fatalf("loan not visible after commit: %v", err)
	}
	entries, err := auditRepo.ListByLoan(ctx, l.ID)
	if err != nil || len(entries) != 1 {
		t.Fatalf("audit entry not visible after commit: %d, %v", len(entries), err)
	}
}

func TestGormUoW_WithinTx_Rollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	loanRepo := NewLoanRepository(db)

	sentinel := errors.New("boom")
	l := makeLoan("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	err := guow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		if err := r.Audits.Append(ctx, makeAuditEntry(l.ID, auditDomain.ActionReviewed)); err != nil {
			return err
		}
		return sentinel // force rollback
	})
	if !errors.Is(err, sentinel) || !errors.Is(err, apperr.ErrPersistence) {
		t.Fatalf("expected sentinel classified as persistence error, got %v", err)
	}

	// None should exist after rollback
	if _, err := loanRepo.GetByLoanID(ctx, l.LoanID); !errors.Is(err, loanDomain.ErrNotFound) {
		t.Fatalf("expected loan not found after rollback, got %v", err)
	}
	var n int64
	db.Model(&auditDomain.Entry{}).Count(&n)
	if n != 0 {
		t.Fatalf("expected no audit rows after rollback, got %d", n)
	}
}

func TestGormUoW_WithinLoanTx_Commit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	loanRepo := NewLoanRepository(db)
	auditRepo := NewAuditRepository(db)

	seed := seedLoan(t, db, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	// Execute WithinLoanTx: should fetch locked loan and pass to fn
	if err := guow.WithinLoanTx(ctx, seed.LoanID, func(r uow.Repos, l *loanDomain.Loan) error {
		if l == nil || l.LoanID != seed.LoanID || l.Status != loanDomain.StatusPending {
			t.Fatalf("unexpected loan passed to fn: %+v", l)
		}
		if err := r.Audits.Append(ctx, makeAuditEntry(l.ID, auditDomain.ActionApproved)); err != nil {
			return err
		}
		now := time.Now().UTC()
		actor := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
		l.Status = loanDomain.StatusApproved
		l.DecidedBy = &actor
		l.DecidedAt = &now
		return r.Loans.SaveDecision(ctx, l)
	}); err != nil {
		t.Fatalf("WithinLoanTx commit err: %v", err)
	}

	gotLoan, err := loanRepo.GetByLoanID(ctx, seed.LoanID)
	if err != nil {
		t.Fatalf("GetByLoanID post-commit: %v", err)
	}
	if gotLoan.Status != loanDomain.StatusApproved {
		t.Fatalf("loan state not updated, got=%s", gotLoan.Status)
	}
	if entries, _ := auditRepo.ListByLoan(ctx, seed.ID); len(entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(entries))
	}
}

func TestGormUoW_WithinLoanTx_Rollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	loanRepo := NewLoanRepository(db)
	auditRepo := NewAuditRepository(db)

	seed := seedLoan(t, db, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	sentinel := errors.New("stop")

	_ = guow.WithinLoanTx(ctx, seed.LoanID, func(r uow.Repos, l *loanDomain.Loan) error {
		if err := r.Audits.Append(ctx, makeAuditEntry(l.ID, auditDomain.ActionApproved)); err != nil {
			return err
		}
		l.Status = loanDomain.StatusApproved
		if err := r.Loans.SaveDecision(ctx, l); err != nil {
			return err
		}
		return sentinel // force rollback
	})

	gotLoan, err := loanRepo.GetByLoanID(ctx, seed.LoanID)
	if err != nil {
		t.Fatalf("post-rollback GetByLoanID: %v", err)
	}
	if gotLoan.Status != loanDomain.StatusPending {
		t.Fatalf("expected pending after rollback, got %s", gotLoan.Status)
	}
	if entries, _ := auditRepo.ListByLoan(ctx, seed.ID); len(entries) != 0 {
		t.Fatalf("expected audit entry absent after rollback, got %d", len(entries))
	}
}

func TestGormUoW_WithinLoanTx_LoanNotFound(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db)

	err := guow.WithinLoanTx(ctx, "LN-NOPE", func(r uow.Repos, l *loanDomain.Loan) error {
		t.Fatalf("callback should not be called when loan missing")
		return nil
	})
	if !errors.Is(err, loanDomain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound when loan missing, got %v", err)
	}
}
