package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/repairshop/workshop/internal/api/metrics"
	"github.com/repairshop/workshop/internal/api/middleware"
	"github.com/repairshop/workshop/internal/core/domain"
	"github.com/repairshop/workshop/internal/core/ports"
)

// AuthHandler serves the login, logout and session endpoints.
type AuthHandler struct {
	auth    ports.AuthService
	clients ports.ClientService
	cookie  CookieConfig
}

func NewAuthHandler(auth ports.AuthService, clients ports.ClientService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{auth: auth, clients: clients, cookie: cookie}
}

// StaffLogin authenticates an internal user by email.
//
// @Summary      Staff login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      staffLoginRequest  true  "Staff credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) StaffLogin(c echo.Context) error {
	var req staffLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		recordLogin(domain.KindStaff, err)
		return err
	}

	res, err := h.auth.StaffLogin(c.Request().Context(), req.Email, req.Password)
	recordLogin(domain.KindStaff, err)
	if err != nil {
		return err
	}
	return h.loggedIn(c, res)
}

// ClientLogin authenticates a client by identifier or email. Staff emails
// are accepted too, so the client portal can serve as the single login form.
//
// @Summary      Unified login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      clientLoginRequest  true  "Client identifier or email, or staff email"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /auth/client/login [post]
func (h *AuthHandler) ClientLogin(c echo.Context) error {
	var req clientLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		recordLogin("", err)
		return err
	}

	res, err := h.auth.Login(c.Request().Context(), req.Identifier, req.Password)
	if err != nil {
		recordLogin("", err)
		return err
	}
	recordLogin(res.Kind(), nil)
	return h.loggedIn(c, res)
}

func (h *AuthHandler) loggedIn(c echo.Context, res *ports.LoginResult) error {
	h.cookie.set(c, res.Token.Raw)
	return c.JSON(http.StatusOK, toLoginResponse(res))
}

// Logout clears the auth cookie. Bearer tokens stay valid until they expire.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	h.cookie.clear(c)
	return c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

// Verify reports whether the request carries a valid session.
//
// @Summary      Verify session
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  verifyResponse
// @Failure      401  {object}  verifyResponse
// @Router       /auth/verify [get]
func (h *AuthHandler) Verify(c echo.Context) error {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, verifyResponse{Authenticated: false})
	}
	if p, ok := middleware.PrincipalFrom(c); !ok || p.Locked() {
		return c.JSON(http.StatusUnauthorized, verifyResponse{Authenticated: false})
	}
	return c.JSON(http.StatusOK, toVerifyResponse(claims))
}

// Me returns the profile of the logged-in client.
//
// @Summary      Current client profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  clientResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /auth/client/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	client, err := h.clients.GetClient(c.Request().Context(), p.AccountID())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toClientResponse(client))
}

// ChangePassword replaces the logged-in client's password.
//
// @Summary      Change client password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "Old and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /auth/client/change-password [post]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.clients.ChangePassword(c.Request().Context(), p.AccountID(), toChangePasswordInput(req)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "password changed"})
}

// recordLogin counts a login attempt. kind is empty when the attempt never
// resolved to a principal.
func recordLogin(kind domain.Kind, err error) {
	label := string(kind)
	if label == "" {
		label = "unknown"
	}
	metrics.LoginsTotal.WithLabelValues(label, loginResult(err)).Inc()
}

func loginResult(err error) string {
	var he *echo.HTTPError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrTooManyAttempts):
		return "throttled"
	case errors.Is(err, domain.ErrAccountDisabled):
		return "disabled"
	case errors.Is(err, domain.ErrUnauthorized):
		return "bad_credentials"
	case errors.Is(err, domain.ErrBadRequest), errors.As(err, &he):
		return "invalid_request"
	default:
		return "error"
	}
}
