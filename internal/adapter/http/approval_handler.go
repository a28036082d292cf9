package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	domain "loan-lifecycle/internal/domain/loan"
	"loan-lifecycle/internal/usecase/approval"
	"loan-lifecycle/internal/usecase/ledger"
)

type ApprovalHandler struct {
	approval *approval.Usecase
	ledger   *ledger.Usecase
}

func NewApprovalHandler(a *approval.Usecase, l *ledger.Usecase) *ApprovalHandler {
	return &ApprovalHandler{approval: a, ledger: l}
}

type decideReq struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
	Reason string `json:"reason" validate:"max=1000"`
}

type reviewReq struct {
	Comment string `json:"comment" validate:"max=1000"`
}

func (h *ApprovalHandler) Decide(c echo.Context) error {
	who, ok := actorOf(c)
	if !ok {
		return unauthorized(c)
	}
	var req decideReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	res, err := h.approval.Decide(c.Request().Context(), who, ledger.DecideInput{
		LoanID: c.Param("loan_id"),
		Action: domain.Action(req.Action),
		Reason: req.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ApprovalHandler) Review(c echo.Context) error {
	who, ok := actorOf(c)
	if !ok {
		return unauthorized(c)
	}
	var req reviewReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	res, err := h.ledger.ReviewByAgent(c.Request().Context(), who, ledger.ReviewInput{
		LoanID:  c.Param("loan_id"),
		Comment: req.Comment,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ApprovalHandler) AuditTrail(c echo.Context) error {
	who, ok := actorOf(c)
	if !ok {
		return unauthorized(c)
	}
	entries, err := h.ledger.AuditTrail(c.Request().Context(), who, c.Param("loan_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": entries})
}

func (h *ApprovalHandler) SideEffects(c echo.Context) error {
	who, ok := actorOf(c)
	if !ok {
		return unauthorized(c)
	}
	attempts, err := h.ledger.SideEffects(c.Request().Context(), who, c.Param("loan_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": attempts})
}
