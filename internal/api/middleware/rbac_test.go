package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/repairshop/workshop/internal/core/domain"
)

func callRequireRoles(t *testing.T, setup func(c echo.Context), roles ...domain.Role) (bool, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if setup != nil {
		setup(c)
	}

	called := false
	handler := RequireRoles(roles...)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	err := handler(c)
	return called, err
}

func TestRequireRoles_Allows(t *testing.T) {
	called, err := callRequireRoles(t, func(c echo.Context) {
		c.Set(ctxPrincipal, domain.Principal(adminPrincipal))
	}, domain.RoleAdmin, domain.RoleSecretary)

	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
}

func TestRequireRoles_Forbids(t *testing.T) {
	called, err := callRequireRoles(t, func(c echo.Context) {
		c.Set(ctxPrincipal, domain.Principal(clientPrincipal))
	}, domain.RoleAdmin)

	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if called {
		t.Fatalf("next handler must not be called")
	}
}

func TestRequireRoles_LockedPrincipal(t *testing.T) {
	locked := clientPrincipal
	locked.Active = false

	_, err := callRequireRoles(t, func(c echo.Context) {
		c.Set(ctxPrincipal, domain.Principal(locked))
	}, domain.RoleClient)

	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for a disabled account, got %v", err)
	}
}

func TestRequireRoles_Anonymous(t *testing.T) {
	cases := []struct {
		name     string
		tokenErr error
		want     error
	}{
		{name: "no token", want: domain.ErrUnauthenticated},
		{name: "expired", tokenErr: domain.ErrTokenExpired, want: domain.ErrTokenExpired},
		{name: "bad signature", tokenErr: domain.ErrTokenBadSignature, want: domain.ErrTokenInvalid},
		{name: "malformed", tokenErr: domain.ErrTokenMalformed, want: domain.ErrTokenInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			called, err := callRequireRoles(t, func(c echo.Context) {
				if tc.tokenErr != nil {
					c.Set(ctxTokenError, tc.tokenErr)
				}
			}, domain.RoleClient)

			if called {
				t.Fatalf("next handler must not be called")
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
