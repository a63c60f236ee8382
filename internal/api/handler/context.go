package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/moneytracker/money-tracker/internal/api/middleware"
	"github.com/moneytracker/money-tracker/internal/core/domain"
)

// ctxPrincipal returns the identity the Auth middleware attached to the
// request. A missing principal is reported as domain.ErrUnauthenticated so
// the error handler renders a 401.
func ctxPrincipal(c echo.Context) (*domain.Principal, error) {
	p := middleware.PrincipalFrom(c)
	if p == nil {
		return nil, domain.ErrUnauthenticated
	}
	return p, nil
}

// bindAndValidate decodes the request body into req and runs the registered
// validator on it.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if c.Echo().Validator == nil {
		return nil
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
