package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/repairshop/workshop/internal/core/domain"
)

// MinSecretLen is the minimum signing secret size for HS512.
const MinSecretLen = 64

var ErrWeakSecret = fmt.Errorf("token secret must be at least %d bytes", MinSecretLen)

// tokenClaims is the wire form of domain.TokenClaims.
type tokenClaims struct {
	ID    int64  `json:"id"`
	Role  string `json:"role"`
	Type  string `json:"type"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies stateless HS512 bearer tokens. It keeps
// no per-token state; the secret and TTL are fixed for the process lifetime.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption configures a TokenService.
type TokenOption func(*TokenService)

// WithClock overrides the time source used to stamp and verify tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

func NewTokenService(secret []byte, ttl time.Duration, opts ...TokenOption) (*TokenService, error) {
	if len(secret) < MinSecretLen {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	s := &TokenService{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL returns the fixed token lifetime.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// IssueStaffToken signs a token whose subject is the staff email.
func (s *TokenService) IssueStaffToken(p domain.StaffPrincipal) (domain.Token, error) {
	return s.issue(p.Email, p.ID, p.StaffRole, domain.KindStaff, "")
}

// IssueClientToken signs a token whose subject is the client identifier and
// which carries the email used to reload the client on each request.
func (s *TokenService) IssueClientToken(p domain.ClientPrincipal) (domain.Token, error) {
	return s.issue(p.Identifier, p.ID, domain.RoleClient, domain.KindClient, p.Email)
}

func (s *TokenService) issue(subject string, id int64, role domain.Role, kind domain.Kind, email string) (domain.Token, error) {
	now := s.now().UTC().Truncate(time.Second)
	exp := now.Add(s.ttl)

	claims := tokenClaims{
		ID:    id,
		Role:  string(role),
		Type:  string(kind),
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(s.secret)
	if err != nil {
		return domain.Token{}, fmt.Errorf("sign token: %w", err)
	}

	return domain.Token{
		Raw: raw,
		Claims: domain.TokenClaims{
			Subject:   subject,
			ID:        id,
			Role:      role,
			Kind:      kind,
			Email:     email,
			IssuedAt:  now,
			ExpiresAt: exp,
		},
	}, nil
}

// Validate reports whether raw carries a good signature and is not expired.
// It does not check that the principal still exists or is active.
func (s *TokenService) Validate(raw string) bool {
	_, err := s.Decode(raw)
	return err == nil
}

// Decode verifies raw and returns its claims. Errors wrap
// domain.ErrTokenExpired, domain.ErrTokenBadSignature or
// domain.ErrTokenMalformed.
func (s *TokenService) Decode(raw string) (*domain.TokenClaims, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, classifyTokenError(err)
	}

	kind := domain.Kind(claims.Type)
	if kind != domain.KindStaff && kind != domain.KindClient {
		return nil, fmt.Errorf("decode token: %w (type %q)", domain.ErrTokenMalformed, claims.Type)
	}

	out := &domain.TokenClaims{
		Subject:   claims.Subject,
		ID:        claims.ID,
		Role:      domain.Role(claims.Role),
		Kind:      kind,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("decode token: %w", domain.ErrTokenExpired)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("decode token: %w", domain.ErrTokenBadSignature)
	default:
		return fmt.Errorf("decode token: %w", domain.ErrTokenMalformed)
	}
}
