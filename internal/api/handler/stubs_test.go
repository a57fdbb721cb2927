package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/repairshop/workshop/internal/core/domain"
	"github.com/repairshop/workshop/internal/core/ports"
)

type stubAuthService struct {
	staffLoginFn  func(ctx context.Context, email, password string) (*ports.LoginResult, error)
	clientLoginFn func(ctx context.Context, login, password string) (*ports.LoginResult, error)
	loginFn       func(ctx context.Context, login, password string) (*ports.LoginResult, error)
}

func (s *stubAuthService) StaffLogin(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	return s.staffLoginFn(ctx, email, password)
}

func (s *stubAuthService) ClientLogin(ctx context.Context, login, password string) (*ports.LoginResult, error) {
	return s.clientLoginFn(ctx, login, password)
}

func (s *stubAuthService) Login(ctx context.Context, login, password string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, login, password)
}

// stubClientService fails loudly for any method a test did not set up.
type stubClientService struct {
	createFn   func(ctx context.Context, in ports.CreateClientInput) (*domain.Client, error)
	getFn      func(ctx context.Context, id int64) (*domain.Client, error)
	listFn     func(ctx context.Context) ([]*domain.Client, error)
	searchFn   func(ctx context.Context, keyword string) ([]*domain.Client, error)
	updateFn   func(ctx context.Context, id int64, in ports.UpdateClientInput) (*domain.Client, error)
	passwordFn func(ctx context.Context, id int64, in ports.ChangePasswordInput) error
	resendFn   func(ctx context.Context, id int64) error
	toggleFn   func(ctx context.Context, id int64) (*domain.Client, error)
	deleteFn   func(ctx context.Context, id int64) error
}

func (s *stubClientService) CreateClient(ctx context.Context, in ports.CreateClientInput) (*domain.Client, error) {
	return s.createFn(ctx, in)
}

func (s *stubClientService) GetClient(ctx context.Context, id int64) (*domain.Client, error) {
	return s.getFn(ctx, id)
}

func (s *stubClientService) ListClients(ctx context.Context) ([]*domain.Client, error) {
	return s.listFn(ctx)
}

func (s *stubClientService) SearchClients(ctx context.Context, keyword string) ([]*domain.Client, error) {
	return s.searchFn(ctx, keyword)
}

func (s *stubClientService) UpdateClient(ctx context.Context, id int64, in ports.UpdateClientInput) (*domain.Client, error) {
	return s.updateFn(ctx, id, in)
}

func (s *stubClientService) ChangePassword(ctx context.Context, id int64, in ports.ChangePasswordInput) error {
	return s.passwordFn(ctx, id, in)
}

func (s *stubClientService) ResendCredentials(ctx context.Context, id int64) error {
	return s.resendFn(ctx, id)
}

func (s *stubClientService) ToggleStatus(ctx context.Context, id int64) (*domain.Client, error) {
	return s.toggleFn(ctx, id)
}

func (s *stubClientService) DeleteClient(ctx context.Context, id int64) error {
	return s.deleteFn(ctx, id)
}

type stubStaffService struct {
	createFn func(ctx context.Context, in ports.CreateStaffInput) (*domain.StaffUser, error)
	getFn    func(ctx context.Context, id int64) (*domain.StaffUser, error)
}

func (s *stubStaffService) CreateStaff(ctx context.Context, in ports.CreateStaffInput) (*domain.StaffUser, error) {
	return s.createFn(ctx, in)
}

func (s *stubStaffService) GetStaff(ctx context.Context, id int64) (*domain.StaffUser, error) {
	return s.getFn(ctx, id)
}

var testCookie = CookieConfig{Name: "auth_token", MaxAge: 24 * time.Hour}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// newJSONContext builds a context for method/target with an optional JSON body.
func newJSONContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func sampleClient() *domain.Client {
	return &domain.Client{
		ID:         7,
		Identifier: "CLT-00007",
		FirstName:  "Jeanne",
		LastName:   "Martin",
		Address:    "3 rue des Lilas",
		Phone:      "0611223344",
		Email:      "jeanne@example.com",
		Active:     true,
	}
}

func clientLoginResult() *ports.LoginResult {
	c := sampleClient()
	return &ports.LoginResult{
		Token: domain.Token{
			Raw: "client.jwt.token",
			Claims: domain.TokenClaims{
				Subject:   c.Identifier,
				ID:        c.ID,
				Role:      domain.RoleClient,
				Kind:      domain.KindClient,
				Email:     c.Email,
				ExpiresAt: time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC),
			},
		},
		Client: c,
	}
}

func staffLoginResult() *ports.LoginResult {
	u := &domain.StaffUser{ID: 1, FirstName: "Paul", LastName: "Durand", Email: "paul@shop.test", Role: domain.RoleAdmin, Active: true}
	return &ports.LoginResult{
		Token: domain.Token{
			Raw: "staff.jwt.token",
			Claims: domain.TokenClaims{
				Subject: u.Email,
				ID:      u.ID,
				Role:    u.Role,
				Kind:    domain.KindStaff,
			},
		},
		Staff: u,
	}
}
