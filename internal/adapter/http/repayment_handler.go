package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"loan-lifecycle/internal/domain/loan"
	domain "loan-lifecycle/internal/domain/repayment"
	"loan-lifecycle/internal/usecase/repayment"
)

type RepaymentHandler struct{ uc *repayment.Usecase }

func NewRepaymentHandler(uc *repayment.Usecase) *RepaymentHandler {
	return &RepaymentHandler{uc: uc}
}

type recordPaymentReq struct {
	AmountPaid decimal.Decimal `json:"amount_paid" validate:"gte=0,dec2"`
	// Accept canonical date `YYYY-MM-DD`
	PaidOn string `json:"paid_on" validate:"required,datetime=2006-01-02"`
}

func (h *RepaymentHandler) GenerateSchedule(c echo.Context) error {
	who, ok := actorOf(c)
	if !ok {
		return unauthorized(c)
	}
	dto, err := h.uc.GenerateSchedule(c.Request().Context(), who, c.Param("loan_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *RepaymentHandler) ListInstallments(c echo.Context) error {
	who, ok := actorOf(c)
	if !ok {
		return unauthorized(c)
	}
	var status, sortBy, sortOrder string
	if err := echo.QueryParamsBinder(c).
		String("status", &status).
		String("sort_by", &sortBy).
		String("sort_order", &sortOrder).
		BindError(); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query: " + err.Error()})
	}

	var f domain.ListFilter
	if status != "" {
		st, err := domain.ParseStatus(status)
		if err != nil {
			return writeError(c, err)
		}
		f.Status = &st
	}
	var err error
	if f.SortBy, err = domain.ParseSortField(sortBy); err != nil {
		return writeError(c, err)
	}
	// installments default to ascending, unlike loans
	if sortOrder != "" {
		if f.SortOrder, err = loan.ParseSortOrder(sortOrder); err != nil {
			return writeError(c, err)
		}
	}

	items, err := h.uc.ListInstallments(c.Request().Context(), who, repayment.ListInput{LoanID: c.Param("loan_id"), Filter: f})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

func (h *RepaymentHandler) RecordPayment(c echo.Context) error {
	who, ok := actorOf(c)
	if !ok {
		return unauthorized(c)
	}
	var req recordPaymentReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	paidOn, err := time.Parse(time.DateOnly, req.PaidOn)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid paid_on"})
	}
	dto, err := h.uc.RecordPayment(c.Request().Context(), who, repayment.RecordPaymentInput{
		InstallmentID: c.Param("installment_id"),
		AmountPaid:    req.AmountPaid,
		PaidOn:        paidOn,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
