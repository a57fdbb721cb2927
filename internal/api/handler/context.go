package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/repairshop/workshop/internal/api/middleware"
	"github.com/repairshop/workshop/internal/core/domain"
)

// ctxPrincipal returns the authenticated principal. Routes using it sit
// behind RequireRoles, so a missing principal means the route was wired
// without the middleware.
func ctxPrincipal(c echo.Context) (domain.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return p, nil
}

// pathID parses the :id path parameter.
func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// bindAndValidate decodes the JSON body into req and runs struct validation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}
