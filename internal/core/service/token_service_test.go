package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/repairshop/workshop/internal/core/domain"
)

var testSecret = []byte(strings.Repeat("s", MinSecretLen))

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestTokens(t *testing.T, ttl time.Duration, clock *fakeClock) *TokenService {
	t.Helper()
	opts := []TokenOption{}
	if clock != nil {
		opts = append(opts, WithClock(clock.Now))
	}
	svc, err := NewTokenService(testSecret, ttl, opts...)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return svc
}

func TestNewTokenService_RejectsShortSecret(t *testing.T) {
	if _, err := NewTokenService([]byte("short"), time.Hour); !errors.Is(err, ErrWeakSecret) {
		t.Fatalf("expected ErrWeakSecret, got %v", err)
	}
}

func TestTokenService_IssueStaffToken(t *testing.T) {
	svc := newTestTokens(t, time.Hour, nil)

	tok, err := svc.IssueStaffToken(domain.StaffPrincipal{ID: 7, Email: "admin@shop.fr", StaffRole: domain.RoleAdmin, Active: true})
	if err != nil {
		t.Fatalf("IssueStaffToken: %v", err)
	}
	if tok.Raw == "" {
		t.Fatalf("expected raw token")
	}

	claims, err := svc.Decode(tok.Raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claims.Subject != "admin@shop.fr" || claims.ID != 7 || claims.Role != domain.RoleAdmin || claims.Kind != domain.KindStaff {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Email != "" {
		t.Fatalf("staff token must not carry an email claim, got %q", claims.Email)
	}
	if !claims.ExpiresAt.Equal(claims.IssuedAt.Add(time.Hour)) {
		t.Fatalf("expiresAt must be issuedAt+TTL: %v %v", claims.IssuedAt, claims.ExpiresAt)
	}
}

func TestTokenService_IssueClientToken_WireClaims(t *testing.T) {
	svc := newTestTokens(t, time.Hour, nil)

	tok, err := svc.IssueClientToken(domain.ClientPrincipal{ID: 3, Identifier: "CLT-00003", Email: "a@x.com", Active: true})
	if err != nil {
		t.Fatalf("IssueClientToken: %v", err)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(tok.Raw, claims, func(*jwt.Token) (any, error) { return testSecret, nil })
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if parsed.Method.Alg() != "HS512" {
		t.Fatalf("expected HS512, got %s", parsed.Method.Alg())
	}
	if claims["type"] != "CLIENT" || claims["role"] != "CLIENT" {
		t.Fatalf("unexpected type/role: %v %v", claims["type"], claims["role"])
	}
	if claims["sub"] != "CLT-00003" || claims["email"] != "a@x.com" {
		t.Fatalf("unexpected sub/email: %v %v", claims["sub"], claims["email"])
	}
	if claims["id"] != float64(3) {
		t.Fatalf("unexpected id: %v", claims["id"])
	}
	for _, k := range []string{"iat", "exp"} {
		if _, ok := claims[k]; !ok {
			t.Fatalf("missing %s claim", k)
		}
	}
}

func TestTokenService_Lifecycle(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	svc := newTestTokens(t, time.Hour, clock)

	tok, err := svc.IssueStaffToken(domain.StaffPrincipal{ID: 1, Email: "tech@shop.fr", StaffRole: domain.RoleTechnician})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	clock.t = clock.t.Add(59 * time.Minute)
	if !svc.Validate(tok.Raw) {
		t.Fatalf("token must be valid before expiry")
	}

	clock.t = clock.t.Add(2 * time.Minute)
	if svc.Validate(tok.Raw) {
		t.Fatalf("token must be invalid after expiry")
	}
	if _, err := svc.Decode(tok.Raw); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenService_ForeignSecretAlwaysFails(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newTestTokens(t, time.Hour, clock)
	other, err := NewTokenService([]byte(strings.Repeat("o", MinSecretLen)), time.Hour, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	tok, _ := other.IssueStaffToken(domain.StaffPrincipal{ID: 1, Email: "x@shop.fr", StaffRole: domain.RoleAdmin})

	if svc.Validate(tok.Raw) {
		t.Fatalf("token signed with a different secret must not validate")
	}
	_, err = svc.Decode(tok.Raw)
	if !errors.Is(err, domain.ErrTokenBadSignature) || !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected bad signature, got %v", err)
	}

	clock.t = clock.t.Add(2 * time.Hour)
	if svc.Validate(tok.Raw) {
		t.Fatalf("foreign token must fail regardless of expiry")
	}
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	svc := newTestTokens(t, time.Hour, nil)

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "admin@shop.fr",
		"type": "USER",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.Decode(raw); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for HS256 token, got %v", err)
	}
}

func TestTokenService_Malformed(t *testing.T) {
	svc := newTestTokens(t, time.Hour, nil)

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		_, err := svc.Decode(raw)
		if !errors.Is(err, domain.ErrTokenMalformed) {
			t.Fatalf("Decode(%q): expected ErrTokenMalformed, got %v", raw, err)
		}
		if errors.Is(err, domain.ErrTokenExpired) {
			t.Fatalf("Decode(%q): malformed must not read as expired", raw)
		}
	}
}

func TestTokenService_UnknownKindIsMalformed(t *testing.T) {
	svc := newTestTokens(t, time.Hour, nil)

	raw, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub":  "someone",
		"type": "ROBOT",
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString(testSecret)

	if _, err := svc.Decode(raw); !errors.Is(err, domain.ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}
}

func TestTokenService_MissingExpiry(t *testing.T) {
	svc := newTestTokens(t, time.Hour, nil)

	raw, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub":  "someone",
		"type": "USER",
	}).SignedString(testSecret)

	if svc.Validate(raw) {
		t.Fatalf("token without exp must not validate")
	}
}
