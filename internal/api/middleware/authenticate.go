package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/repairshop/workshop/internal/api/metrics"
	"github.com/repairshop/workshop/internal/core/domain"
	"github.com/repairshop/workshop/internal/core/ports"
)

// Context keys set by Authenticate.
const (
	ctxPrincipal  = "principal"
	ctxClaims     = "token_claims"
	ctxTokenError = "token_error"
)

// TokenDecoder verifies a raw bearer token.
type TokenDecoder interface {
	Decode(raw string) (*domain.TokenClaims, error)
}

// Authenticate attaches the principal behind the request token, if any.
// The token is read from the Authorization bearer header, then from the
// cookie named cookieName. It never rejects a request: a missing, bad or
// expired token leaves the request anonymous, and RequireRoles answers 401.
// Resolution failures are dropped without logging.
func Authenticate(tokens TokenDecoder, resolver ports.PrincipalResolver, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := TokenFromRequest(c.Request(), cookieName)
			if raw == "" {
				return next(c)
			}

			claims, err := tokens.Decode(raw)
			if err != nil {
				c.Set(ctxTokenError, err)
				if errors.Is(err, domain.ErrTokenExpired) {
					metrics.TokenChecksTotal.WithLabelValues("expired").Inc()
				} else {
					metrics.TokenChecksTotal.WithLabelValues("invalid").Inc()
				}
				return next(c)
			}

			p, err := resolver.Resolve(c.Request().Context(), claims)
			if err != nil || p == nil {
				metrics.TokenChecksTotal.WithLabelValues("unresolved").Inc()
				return next(c)
			}

			metrics.TokenChecksTotal.WithLabelValues("valid").Inc()
			c.Set(ctxClaims, claims)
			c.Set(ctxPrincipal, p)
			return next(c)
		}
	}
}

// TokenFromRequest returns the bearer token from the Authorization header,
// falling back to the named cookie. It returns "" when neither is present.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if h := r.Header.Get(echo.HeaderAuthorization); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") && strings.TrimSpace(parts[1]) != "" {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookieName == "" {
		return ""
	}
	if ck, err := r.Cookie(cookieName); err == nil {
		return ck.Value
	}
	return ""
}

// PrincipalFrom returns the principal attached by Authenticate.
func PrincipalFrom(c echo.Context) (domain.Principal, bool) {
	p, ok := c.Get(ctxPrincipal).(domain.Principal)
	return p, ok && p != nil
}

// ClaimsFrom returns the verified token claims attached by Authenticate.
func ClaimsFrom(c echo.Context) (*domain.TokenClaims, bool) {
	claims, ok := c.Get(ctxClaims).(*domain.TokenClaims)
	return claims, ok && claims != nil
}

// TokenErrorFrom returns why a presented token was rejected, or nil.
func TokenErrorFrom(c echo.Context) error {
	err, _ := c.Get(ctxTokenError).(error)
	return err
}
