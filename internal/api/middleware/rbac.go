package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/repairshop/workshop/internal/core/domain"
)

// RequireRoles enforces role-based access control. Anonymous requests get
// domain.ErrTokenExpired, domain.ErrTokenInvalid or domain.ErrUnauthenticated
// depending on what Authenticate saw; authenticated principals without one
// of roles, or whose account is disabled, get domain.ErrForbidden.
func RequireRoles(roles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return anonymousError(c)
			}
			if !domain.HasRole(p, roles...) {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}

func anonymousError(c echo.Context) error {
	err := TokenErrorFrom(c)
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return domain.ErrTokenExpired
	case err != nil:
		return domain.ErrTokenInvalid
	default:
		return domain.ErrUnauthenticated
	}
}
