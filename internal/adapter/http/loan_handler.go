package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	domain "loan-lifecycle/internal/domain/loan"
	"loan-lifecycle/internal/usecase/loan"
)

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type applyLoanReq struct {
	Amount       decimal.Decimal  `json:"amount"        validate:"required,gt=0,dec2"`
	TermMonths   int              `json:"term_months"   validate:"required,gt=0,lte=600"`
	InterestRate *decimal.Decimal `json:"interest_rate"`
}

func (h *LoanHandler) Apply(c echo.Context) error {
	who, ok := actorOf(c)
	if !ok {
		return unauthorized(c)
	}
	var req applyLoanReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Apply(c.Request().Context(), who, loan.ApplyInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	who, ok := actorOf(c)
	if !ok {
		return unauthorized(c)
	}
	dto, err := h.uc.Get(c.Request().Context(), who, c.Param("loan_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// ListLoans serves both /loans (the caller's own) and /users/:user_id/loans.
func (h *LoanHandler) ListLoans(c echo.Context) error {
	who, ok := actorOf(c)
	if !ok {
		return unauthorized(c)
	}

	var (
		status, sortBy, sortOrder string
		after, before             time.Time
		f                         domain.ListFilter
	)
	if err := echo.QueryParamsBinder(c).
		String("status", &status).
		String("sort_by", &sortBy).
		String("sort_order", &sortOrder).
		Time("created_after", &after, time.RFC3339).
		Time("created_before", &before, time.RFC3339).
		Int("skip", &f.Skip).
		Int("limit", &f.Limit).
		BindError(); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query: " + err.Error()})
	}

	var err error
	if status != "" {
		st, perr := domain.ParseStatus(status)
		if perr != nil {
			return writeError(c, perr)
		}
		f.Status = &st
	}
	if f.SortBy, err = domain.ParseSortField(sortBy); err != nil {
		return writeError(c, err)
	}
	if f.SortOrder, err = domain.ParseSortOrder(sortOrder); err != nil {
		return writeError(c, err)
	}
	if !after.IsZero() {
		f.CreatedAfter = &after
	}
	if !before.IsZero() {
		f.CreatedBefore = &before
	}

	page, err := h.uc.ListByUser(c.Request().Context(), who, loan.ListInput{UserID: c.Param("user_id"), Filter: f})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// Estimate is public; nothing is persisted.
func (h *LoanHandler) Estimate(c echo.Context) error {
	in := loan.EstimateInput{InterestRate: domain.DefaultInterestRate}
	if err := echo.QueryParamsBinder(c).
		TextUnmarshaler("amount", &in.Amount).
		Int("term_months", &in.TermMonths).
		TextUnmarshaler("interest_rate", &in.InterestRate).
		BindError(); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query: " + err.Error()})
	}
	dto, err := h.uc.Estimate(in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
