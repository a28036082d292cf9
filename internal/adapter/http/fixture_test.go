package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"loan-lifecycle/internal/adapter/middleware"
	"loan-lifecycle/internal/domain/actor"
	"loan-lifecycle/internal/domain/audit"
	"loan-lifecycle/internal/domain/loan"
	"loan-lifecycle/internal/domain/repayment"
	"loan-lifecycle/internal/domain/uow"
	"loan-lifecycle/internal/testutil/attemptmock"
	"loan-lifecycle/internal/testutil/auditmock"
	"loan-lifecycle/internal/testutil/installmentmock"
	"loan-lifecycle/internal/testutil/loanmock"
	"loan-lifecycle/internal/testutil/uowmock"
	ucApproval "loan-lifecycle/internal/usecase/approval"
	ucLedger "loan-lifecycle/internal/usecase/ledger"
	ucLoan "loan-lifecycle/internal/usecase/loan"
	ucRepayment "loan-lifecycle/internal/usecase/repayment"
	"loan-lifecycle/internal/usecase/sideeffect"
)

var (
	adminActor    = actor.Actor{ID: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Role: actor.RoleAdmin}
	agentActor    = actor.Actor{ID: "eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee", Role: actor.RoleAgent}
	customerActor = actor.Actor{ID: "cccccccccccccccccccccccccccccccc", Role: actor.RoleCustomer}
	otherCustomer = actor.Actor{ID: "dddddddddddddddddddddddddddddddd", Role: actor.RoleCustomer}

	testClock = time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	testAuth  = middleware.NewAuthenticator("0123456789abcdef0123456789abcdef", "loan-lifecycle-test")
)

// -------- helpers --------

func newEchoWithValidator() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func mustJSON(v any) *bytes.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("bad json: %v; raw=%s", err, rec.Body.String())
	}
}

// do sends a request through the full router as who; a zero actor sends no token.
func do(t *testing.T, e *echo.Echo, who actor.Actor, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if who.ID != "" {
		tok, err := testAuth.Issue(who, time.Minute)
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// -------- in-memory world --------

type okDirectory struct{}

func (okDirectory) ContactAddress(context.Context, string) (string, error) {
	return "owner@example.com", nil
}

type recordingSender struct {
	mu       sync.Mutex
	subjects []string
}

func (s *recordingSender) Send(_ context.Context, _, subject, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects = append(s.subjects, subject)
	return nil
}

type okGateway struct{}

func (okGateway) Disburse(context.Context, sideeffect.DisbursementRequest) (string, error) {
	return "TRX-1", nil
}

// store holds loans and installments and applies the same guards as the
// gorm repositories.
type store struct {
	mu       sync.Mutex
	loans    []loan.Loan
	rows     []repayment.Installment
	audits   *auditmock.Repo
	attempts *attemptmock.Repo
	sender   *recordingSender
}

func newStore() *store {
	return &store{audits: &auditmock.Repo{}, attempts: &attemptmock.Repo{}, sender: &recordingSender{}}
}

// seed adds a loan owned by userID and returns its public id.
func (s *store) seed(loanID, userID, principal string, term int, rate string, status loan.Status) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loans = append(s.loans, loan.Loan{
		ID: uint64(len(s.loans) + 1), LoanID: loanID, UserID: userID,
		Principal: decimal.RequireFromString(principal), TermMonths: term, InterestRate: decimal.RequireFromString(rate),
		Status: status, ReviewStatus: loan.ReviewPending, CreatedAt: testClock,
	})
	return loanID
}

func (s *store) find(match func(l *loan.Loan) bool) (*loan.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.loans {
		if match(&s.loans[i]) {
			cp := s.loans[i]
			return &cp, nil
		}
	}
	return nil, loan.ErrNotFound
}

func (s *store) update(id uint64, fn func(l *loan.Loan) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.loans {
		if s.loans[i].ID == id {
			return fn(&s.loans[i])
		}
	}
	return loan.ErrNotFound
}

func (s *store) loanRepo() *loanmock.Repo {
	byLoanID := func(_ context.Context, loanID string) (*loan.Loan, error) {
		return s.find(func(l *loan.Loan) bool { return l.LoanID == loanID })
	}
	return &loanmock.Repo{
		CreateFn: func(_ context.Context, l *loan.Loan) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			l.ID = uint64(len(s.loans) + 1)
			s.loans = append(s.loans, *l)
			return nil
		},
		GetByLoanIDFn:          byLoanID,
		GetByLoanIDForUpdateFn: byLoanID,
		GetByIDFn: func(_ context.Context, id uint64) (*loan.Loan, error) {
			return s.find(func(l *loan.Loan) bool { return l.ID == id })
		},
		ListByUserFn: func(_ context.Context, userID string, f loan.ListFilter) ([]loan.Loan, int64, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			var out []loan.Loan
			for _, l := range s.loans {
				if l.UserID == userID && (f.Status == nil || l.Status == *f.Status) {
					out = append(out, l)
				}
			}
			return out, int64(len(out)), nil
		},
		SaveDecisionFn: func(_ context.Context, l *loan.Loan) error {
			return s.update(l.ID, func(cur *loan.Loan) error {
				if cur.Status != loan.StatusPending {
					return loan.ErrInvalidTransition
				}
				cur.Status, cur.DecidedBy, cur.DecidedAt = l.Status, l.DecidedBy, l.DecidedAt
				return nil
			})
		},
		SaveReviewFn: func(_ context.Context, l *loan.Loan) error {
			return s.update(l.ID, func(cur *loan.Loan) error {
				if cur.ReviewStatus != loan.ReviewPending {
					return loan.ErrReviewNotPending
				}
				cur.ReviewStatus, cur.ReviewedBy, cur.ReviewedAt, cur.ReviewComment = l.ReviewStatus, l.ReviewedBy, l.ReviewedAt, l.ReviewComment
				return nil
			})
		},
	}
}

func (s *store) installmentRepo() *installmentmock.Repo {
	return &installmentmock.Repo{
		CountByLoanFn: func(_ context.Context, loanNumericID uint64) (int64, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			var n int64
			for _, r := range s.rows {
				if r.LoanID == loanNumericID {
					n++
				}
			}
			return n, nil
		},
		CreateBatchFn: func(_ context.Context, items []repayment.Installment) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.rows = append(s.rows, items...)
			return nil
		},
		ListByLoanFn: func(_ context.Context, loanNumericID uint64, status *repayment.Status) ([]repayment.Installment, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			var out []repayment.Installment
			for _, r := range s.rows {
				if r.LoanID == loanNumericID && (status == nil || r.Status == *status) {
					out = append(out, r)
				}
			}
			return out, nil
		},
		GetByInstallmentIDForUpdateFn: func(_ context.Context, installmentID string) (*repayment.Installment, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			for _, r := range s.rows {
				if r.InstallmentID == installmentID {
					cp := r
					return &cp, nil
				}
			}
			return nil, repayment.ErrNotFound
		},
		SavePaymentFn: func(_ context.Context, in *repayment.Installment) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i := range s.rows {
				if s.rows[i].InstallmentID == in.InstallmentID {
					s.rows[i] = *in
					return nil
				}
			}
			return repayment.ErrNotFound
		},
	}
}

// handlers wires every usecase over the store with a fixed clock.
func (s *store) handlers() Handlers {
	loans := s.loanRepo()
	installments := s.installmentRepo()
	s.audits.ListByLoanFn = func(_ context.Context, loanNumericID uint64) ([]audit.Entry, error) {
		var out []audit.Entry
		for _, e := range s.audits.Appended {
			if e.LoanID == loanNumericID {
				out = append(out, e)
			}
		}
		return out, nil
	}
	tx := uowmock.Passthrough(uow.Repos{Loans: loans, Audits: s.audits, Installments: installments})
	now := func() time.Time { return testClock }

	ledger := ucLedger.NewUsecase(loans, s.audits, tx).WithClock(now).WithAttempts(s.attempts)
	rep := ucRepayment.NewUsecase(loans, installments, tx).WithClock(now)
	coord := sideeffect.NewCoordinator(okDirectory{}, s.sender, okGateway{}, s.attempts, time.Second, nil)

	return Handlers{
		Health:    NewHandler(),
		Loans:     NewLoanHandler(ucLoan.NewUsecase(loans).WithClock(now)),
		Approvals: NewApprovalHandler(ucApproval.NewUsecase(ledger, rep, coord, nil), ledger),
		Repayment: NewRepaymentHandler(rep),
	}
}

// router returns an echo instance with every route mounted behind Auth.
func (s *store) router() *echo.Echo {
	e := newEchoWithValidator()
	Register(e, s.handlers(), middleware.Auth(testAuth))
	return e
}

func statusOf(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body=%s", rec.Code, want, rec.Body.String())
	}
}

// anonymous sends requests without a token.
var anonymous actor.Actor

func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
