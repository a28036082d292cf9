package http

import "github.com/labstack/echo/v4"

type Handlers struct {
	Health    *Handler
	Loans     *LoanHandler
	Approvals *ApprovalHandler
	Repayment *RepaymentHandler
}

// Register mounts the public routes on e and everything else behind protect,
// which is applied in order (auth first, then idempotency).
func Register(e *echo.Echo, h Handlers, protect ...echo.MiddlewareFunc) {
	e.GET("/health", h.Health.Health)
	e.GET("/api/v1/loans/estimate", h.Loans.Estimate)

	api := e.Group("/api/v1", protect...)

	api.POST("/loans", h.Loans.Apply)
	api.GET("/loans", h.Loans.ListLoans)
	api.GET("/loans/:loan_id", h.Loans.GetLoan)
	api.GET("/users/:user_id/loans", h.Loans.ListLoans)

	api.POST("/loans/:loan_id/decision", h.Approvals.Decide)
	api.POST("/loans/:loan_id/review", h.Approvals.Review)
	api.GET("/loans/:loan_id/audit", h.Approvals.AuditTrail)
	api.GET("/loans/:loan_id/side-effects", h.Approvals.SideEffects)

	api.POST("/loans/:loan_id/schedule", h.Repayment.GenerateSchedule)
	api.GET("/loans/:loan_id/installments", h.Repayment.ListInstallments)
	api.PUT("/installments/:installment_id/pay", h.Repayment.RecordPayment)
}
