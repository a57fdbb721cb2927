package ports

import (
	"context"
	"time"

	"github.com/repairshop/workshop/internal/core/domain"
)

// LoginResult is returned on a successful login. Exactly one of Staff and
// Client is set, matching Token.Claims.Kind.
type LoginResult struct {
	Token  domain.Token
	Staff  *domain.StaffUser
	Client *domain.Client
}

// Kind returns the principal kind the login resolved to.
func (r *LoginResult) Kind() domain.Kind {
	return r.Token.Claims.Kind
}

// AuthService resolves login credentials to a principal and a signed token.
type AuthService interface {
	StaffLogin(ctx context.Context, email, password string) (*LoginResult, error)
	ClientLogin(ctx context.Context, login, password string) (*LoginResult, error)
	// Login accepts a handle of unknown kind: client first, then staff.
	Login(ctx context.Context, login, password string) (*LoginResult, error)
}

// TokenService issues and verifies signed bearer tokens.
type TokenService interface {
	IssueStaffToken(p domain.StaffPrincipal) (domain.Token, error)
	IssueClientToken(p domain.ClientPrincipal) (domain.Token, error)
	Validate(raw string) bool
	// Decode verifies raw and returns its claims. Failures wrap
	// domain.ErrTokenExpired or domain.ErrTokenInvalid.
	Decode(raw string) (*domain.TokenClaims, error)
	TTL() time.Duration
}

// PrincipalResolver rebuilds a live principal from decoded token claims.
type PrincipalResolver interface {
	Resolve(ctx context.Context, claims *domain.TokenClaims) (domain.Principal, error)
}

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// LoginThrottle counts failed logins per handle.
type LoginThrottle interface {
	Blocked(ctx context.Context, login string) (bool, error)
	Failure(ctx context.Context, login string) error
	Reset(ctx context.Context, login string) error
}
