package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"loan-lifecycle/internal/adapter/middleware"
	"loan-lifecycle/internal/domain/actor"
	"loan-lifecycle/internal/domain/apperr"
)

// statusFor maps error kinds to HTTP codes. Not-found is checked before
// invalid-state so a review on a missing loan reads as 404.
func statusFor(err error) int {
	switch {
	case errors.Is(err, actor.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrPersistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c echo.Context, err error) error {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	return c.JSON(code, ErrorResponse{Error: msg})
}

// bindAndValidate reports false once it has already written the response.
func bindAndValidate(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}

func actorOf(c echo.Context) (actor.Actor, bool) {
	return middleware.ActorFrom(c.Request().Context())
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing credentials"})
}
