package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/repairshop/workshop/internal/core/domain"
)

func newTestAuth(t *testing.T, clients *stubClientRepo, staff *stubStaffRepo, opts ...AuthOption) *AuthService {
	t.Helper()
	return NewAuthService(clients, staff, plainHasher{}, newTestTokens(t, time.Hour, nil), opts...)
}

func activeClient(id int64, identifier, email, password string) *domain.Client {
	return &domain.Client{
		ID:           id,
		FirstName:    "Jean",
		LastName:     "Dupont",
		Identifier:   identifier,
		Email:        email,
		PasswordHash: "hashed:" + password,
		Active:       true,
	}
}

func staffUser(id int64, email, password string, role domain.Role) *domain.StaffUser {
	return &domain.StaffUser{
		ID:           id,
		Email:        email,
		PasswordHash: "hashed:" + password,
		Role:         role,
		Active:       true,
	}
}

func assertAuthError(t *testing.T, err error, public string, sentinel error) {
	t.Helper()
	var ae *domain.AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *domain.AuthError, got %T (%v)", err, err)
	}
	if ae.Public != public || err.Error() != public {
		t.Fatalf("expected public message %q, got %q", public, err.Error())
	}
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected %v, got %v", sentinel, err)
	}
}

func TestAuthService_Login_ClientByIdentifierIgnoresCase(t *testing.T) {
	clients := newStubClientRepo(activeClient(42, "CLT-00042", "a@x.com", "p"))
	svc := newTestAuth(t, clients, newStubStaffRepo())

	res, err := svc.Login(context.Background(), "clt-00042", "p")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Kind() != domain.KindClient || res.Client == nil || res.Staff != nil {
		t.Fatalf("expected client result, got %+v", res)
	}
	claims := res.Token.Claims
	if claims.Subject != "CLT-00042" || claims.Role != domain.RoleClient || claims.ID != 42 || claims.Email != "a@x.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAuthService_Login_ClientByEmailIgnoresCase(t *testing.T) {
	clients := newStubClientRepo(activeClient(1, "CLT-00001", "marie@x.com", "pw"))
	svc := newTestAuth(t, clients, newStubStaffRepo())

	res, err := svc.Login(context.Background(), "  MARIE@X.COM ", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Client.ID != 1 {
		t.Fatalf("unexpected client: %+v", res.Client)
	}
}

func TestAuthService_Login_WrongClientPassword(t *testing.T) {
	clients := newStubClientRepo(activeClient(42, "CLT-00042", "a@x.com", "p"))
	svc := newTestAuth(t, clients, newStubStaffRepo())

	_, err := svc.Login(context.Background(), "CLT-00042", "wrong")
	assertAuthError(t, err, domain.MsgBadCredentials, domain.ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownHandleLooksLikeWrongPassword(t *testing.T) {
	clients := newStubClientRepo(activeClient(42, "CLT-00042", "a@x.com", "p"))
	svc := newTestAuth(t, clients, newStubStaffRepo())

	_, unknown := svc.Login(context.Background(), "CLT-99999", "p")
	_, wrong := svc.Login(context.Background(), "CLT-00042", "x")

	if unknown.Error() != wrong.Error() {
		t.Fatalf("unknown handle and wrong password must read the same: %q vs %q", unknown, wrong)
	}
	if domain.AuthReason(unknown) == domain.AuthReason(wrong) {
		t.Fatalf("internal reasons must differ, both %q", domain.AuthReason(unknown))
	}
}

func TestAuthService_Login_DisabledClient(t *testing.T) {
	c := activeClient(42, "CLT-00042", "a@x.com", "p")
	c.Active = false
	svc := newTestAuth(t, newStubClientRepo(c), newStubStaffRepo())

	_, err := svc.Login(context.Background(), "CLT-00042", "p")
	assertAuthError(t, err, domain.MsgAccountDisabled, domain.ErrAccountDisabled)

	// active flag is checked before the password
	_, err = svc.Login(context.Background(), "CLT-00042", "wrong")
	assertAuthError(t, err, domain.MsgAccountDisabled, domain.ErrAccountDisabled)
}

func TestAuthService_Login_FallsBackToStaff(t *testing.T) {
	staff := newStubStaffRepo(staffUser(3, "admin@x.com", "adm", domain.RoleAdmin))
	svc := newTestAuth(t, newStubClientRepo(), staff)

	res, err := svc.Login(context.Background(), "admin@x.com", "adm")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Kind() != domain.KindStaff || res.Staff == nil || res.Client != nil {
		t.Fatalf("expected staff result, got %+v", res)
	}
	if res.Token.Claims.Subject != "admin@x.com" || res.Token.Claims.Role != domain.RoleAdmin {
		t.Fatalf("unexpected claims: %+v", res.Token.Claims)
	}
}

func TestAuthService_Login_SharedEmailDisambiguation(t *testing.T) {
	clients := newStubClientRepo(activeClient(1, "CLT-00001", "Shared@x.com", "client-pw"))
	staff := newStubStaffRepo(staffUser(9, "shared@x.com", "staff-pw", domain.RoleSecretary))
	svc := newTestAuth(t, clients, staff)
	ctx := context.Background()

	cases := []struct {
		name     string
		login    string
		password string
		kind     domain.Kind
		fails    bool
	}{
		{name: "client password wins first", login: "shared@x.com", password: "client-pw", kind: domain.KindClient},
		{name: "staff password falls back", login: "shared@x.com", password: "staff-pw", kind: domain.KindStaff},
		{name: "staff match is exact", login: "SHARED@X.COM", password: "staff-pw", fails: true},
		{name: "neither password", login: "shared@x.com", password: "nope", fails: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := svc.Login(ctx, tc.login, tc.password)
			if tc.fails {
				assertAuthError(t, err, domain.MsgBadCredentials, domain.ErrInvalidCredentials)
				return
			}
			if err != nil {
				t.Fatalf("Login: %v", err)
			}
			if res.Kind() != tc.kind {
				t.Fatalf("expected kind %s, got %s", tc.kind, res.Kind())
			}
		})
	}
}

func TestAuthService_Login_DisabledClientFallsBackToStaff(t *testing.T) {
	c := activeClient(1, "CLT-00001", "dual@x.com", "pw")
	c.Active = false
	staff := newStubStaffRepo(staffUser(2, "dual@x.com", "pw", domain.RoleTechnician))
	svc := newTestAuth(t, newStubClientRepo(c), staff)

	res, err := svc.Login(context.Background(), "dual@x.com", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Kind() != domain.KindStaff {
		t.Fatalf("expected staff fallback, got %s", res.Kind())
	}
}

func TestAuthService_Login_MissingFields(t *testing.T) {
	svc := newTestAuth(t, newStubClientRepo(), newStubStaffRepo())

	for _, in := range [][2]string{{"", "pw"}, {"   ", "pw"}, {"user", ""}} {
		if _, err := svc.Login(context.Background(), in[0], in[1]); !errors.Is(err, domain.ErrBadRequest) {
			t.Fatalf("Login(%q, %q): expected ErrBadRequest, got %v", in[0], in[1], err)
		}
	}
}

func TestAuthService_Login_StoreFailureIsNotBadCredentials(t *testing.T) {
	clients := newStubClientRepo()
	clients.err = errors.New("connection refused")
	svc := newTestAuth(t, clients, newStubStaffRepo())

	_, err := svc.Login(context.Background(), "someone", "pw")
	if err == nil || errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected infrastructure error, got %v", err)
	}
}

func TestAuthService_Login_Throttle(t *testing.T) {
	clients := newStubClientRepo(activeClient(1, "CLT-00001", "a@x.com", "pw"))
	throttle := newStubThrottle()
	svc := newTestAuth(t, clients, newStubStaffRepo(), WithThrottle(throttle))
	ctx := context.Background()

	if _, err := svc.Login(ctx, "A@x.com", "bad"); err == nil {
		t.Fatalf("expected failure")
	}
	if throttle.failures["a@x.com"] != 1 {
		t.Fatalf("expected one failure recorded under the folded handle, got %v", throttle.failures)
	}

	if _, err := svc.Login(ctx, "a@x.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if throttle.resets["a@x.com"] != 1 {
		t.Fatalf("expected reset on success, got %v", throttle.resets)
	}

	throttle.blocked = true
	if _, err := svc.Login(ctx, "a@x.com", "pw"); !errors.Is(err, domain.ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
}

func TestAuthService_StaffLogin_Throttle(t *testing.T) {
	staff := newStubStaffRepo(staffUser(1, "admin@x.com", "pw", domain.RoleAdmin))
	throttle := newStubThrottle()
	svc := newTestAuth(t, newStubClientRepo(), staff, WithThrottle(throttle))
	ctx := context.Background()

	if _, err := svc.StaffLogin(ctx, "Admin@x.com", "bad"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if throttle.failures["admin@x.com"] != 1 {
		t.Fatalf("expected one failure recorded under the folded handle, got %v", throttle.failures)
	}

	if _, err := svc.StaffLogin(ctx, "admin@x.com", "pw"); err != nil {
		t.Fatalf("StaffLogin: %v", err)
	}
	if throttle.resets["admin@x.com"] != 1 {
		t.Fatalf("expected reset on success, got %v", throttle.resets)
	}

	throttle.blocked = true
	if _, err := svc.StaffLogin(ctx, "admin@x.com", "pw"); !errors.Is(err, domain.ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
}

func TestAuthService_StaffLogin(t *testing.T) {
	disabled := staffUser(2, "off@x.com", "pw", domain.RoleTechnician)
	disabled.Active = false
	staff := newStubStaffRepo(staffUser(1, "admin@x.com", "pw", domain.RoleAdmin), disabled)
	svc := newTestAuth(t, newStubClientRepo(), staff)
	ctx := context.Background()

	res, err := svc.StaffLogin(ctx, " admin@x.com ", "pw")
	if err != nil {
		t.Fatalf("StaffLogin: %v", err)
	}
	if res.Staff.ID != 1 || res.Token.Claims.Kind != domain.KindStaff {
		t.Fatalf("unexpected result: %+v", res)
	}

	_, err = svc.StaffLogin(ctx, "admin@x.com", "bad")
	assertAuthError(t, err, domain.MsgBadCredentials, domain.ErrInvalidCredentials)

	_, err = svc.StaffLogin(ctx, "ghost@x.com", "pw")
	assertAuthError(t, err, domain.MsgBadCredentials, domain.ErrInvalidCredentials)

	_, err = svc.StaffLogin(ctx, "off@x.com", "pw")
	assertAuthError(t, err, domain.MsgAccountDisabled, domain.ErrAccountDisabled)
}

func TestAuthService_ClientLoginNeverTriesStaff(t *testing.T) {
	staff := newStubStaffRepo(staffUser(1, "admin@x.com", "pw", domain.RoleAdmin))
	svc := newTestAuth(t, newStubClientRepo(), staff)

	_, err := svc.ClientLogin(context.Background(), "admin@x.com", "pw")
	assertAuthError(t, err, domain.MsgBadCredentials, domain.ErrClientNotFound)
}
