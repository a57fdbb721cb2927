package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/repairshop/workshop/internal/core/domain"
	"github.com/repairshop/workshop/internal/core/ports"
)

// AuthService resolves login credentials against the client and staff
// stores and issues the matching token.
type AuthService struct {
	clients  ports.ClientRepository
	staff    ports.StaffRepository
	hasher   ports.PasswordHasher
	tokens   ports.TokenService
	throttle ports.LoginThrottle
	log      zerolog.Logger
}

// AuthOption configures an AuthService.
type AuthOption func(*AuthService)

// WithThrottle enables failed-login counting, keyed by the lower-cased
// login handle and shared by every login entry point.
func WithThrottle(t ports.LoginThrottle) AuthOption {
	return func(s *AuthService) { s.throttle = t }
}

// WithAuthLogger sets the logger used for rejected logins.
func WithAuthLogger(l zerolog.Logger) AuthOption {
	return func(s *AuthService) { s.log = l }
}

func NewAuthService(
	clients ports.ClientRepository,
	staff ports.StaffRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenService,
	opts ...AuthOption,
) *AuthService {
	s := &AuthService{
		clients: clients,
		staff:   staff,
		hasher:  hasher,
		tokens:  tokens,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var errMissingCredentials = domain.BadRequest("login and password are required")

// StaffLogin authenticates an internal user by exact email.
func (s *AuthService) StaffLogin(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, errMissingCredentials
	}

	key := strings.ToLower(email)
	if s.isBlocked(ctx, key) {
		return nil, domain.ErrTooManyAttempts
	}

	res, err := s.staffLogin(ctx, email, password)
	if err != nil {
		s.rejected(domain.KindStaff, err)
		if errors.Is(err, domain.ErrUnauthorized) {
			s.failed(ctx, key)
		}
		return nil, err
	}
	s.succeeded(ctx, key)
	return res, nil
}

// ClientLogin authenticates a client by email or identifier, both matched
// case-insensitively. The active flag is checked before the password.
func (s *AuthService) ClientLogin(ctx context.Context, login, password string) (*ports.LoginResult, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, errMissingCredentials
	}

	key := strings.ToLower(login)
	if s.isBlocked(ctx, key) {
		return nil, domain.ErrTooManyAttempts
	}

	res, err := s.clientLogin(ctx, login, password)
	if err != nil {
		s.rejected(domain.KindClient, err)
		if errors.Is(err, domain.ErrUnauthorized) {
			s.failed(ctx, key)
		}
		return nil, err
	}
	s.succeeded(ctx, key)
	return res, nil
}

// Login resolves a handle of unknown kind. Client resolution runs first;
// whatever its failure, the same handle and password are retried as a staff
// email. When no staff account exists the client failure is returned, so a
// disabled client still learns that its account is disabled.
func (s *AuthService) Login(ctx context.Context, login, password string) (*ports.LoginResult, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, errMissingCredentials
	}

	key := strings.ToLower(login)
	if s.isBlocked(ctx, key) {
		return nil, domain.ErrTooManyAttempts
	}

	res, clientErr := s.clientLogin(ctx, login, password)
	if clientErr == nil {
		s.succeeded(ctx, key)
		return res, nil
	}
	s.rejected(domain.KindClient, clientErr)

	res, staffErr := s.staffLogin(ctx, login, password)
	if staffErr == nil {
		s.succeeded(ctx, key)
		return res, nil
	}
	s.rejected(domain.KindStaff, staffErr)

	err := staffErr
	if errors.Is(staffErr, domain.ErrStaffNotFound) {
		err = clientErr
	}
	if errors.Is(err, domain.ErrUnauthorized) {
		s.failed(ctx, key)
	}
	return nil, err
}

func (s *AuthService) clientLogin(ctx context.Context, login, password string) (*ports.LoginResult, error) {
	c, err := s.clients.FindByEmailOrIdentifier(ctx, login)
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			return nil, domain.NewUnknownPrincipal("no client with this email or identifier", err)
		}
		return nil, fmt.Errorf("find client: %w", err)
	}
	if !c.Active {
		return nil, domain.NewAccountDisabled(fmt.Sprintf("client %d is disabled", c.ID))
	}
	if !s.hasher.Verify(password, c.PasswordHash) {
		return nil, domain.NewBadCredentials(fmt.Sprintf("wrong password for client %d", c.ID))
	}

	tok, err := s.tokens.IssueClientToken(c.Principal())
	if err != nil {
		return nil, err
	}
	return &ports.LoginResult{Token: tok, Client: c}, nil
}

func (s *AuthService) staffLogin(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	u, err := s.staff.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrStaffNotFound) {
			return nil, domain.NewUnknownPrincipal("no staff user with this email", err)
		}
		return nil, fmt.Errorf("find staff user: %w", err)
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return nil, domain.NewBadCredentials(fmt.Sprintf("wrong password for staff user %d", u.ID))
	}
	if !u.Active {
		return nil, domain.NewAccountDisabled(fmt.Sprintf("staff user %d is disabled", u.ID))
	}

	tok, err := s.tokens.IssueStaffToken(u.Principal())
	if err != nil {
		return nil, err
	}
	return &ports.LoginResult{Token: tok, Staff: u}, nil
}

func (s *AuthService) rejected(kind domain.Kind, err error) {
	s.log.Debug().
		Str("kind", string(kind)).
		Str("reason", domain.AuthReason(err)).
		Msg("login rejected")
}

func (s *AuthService) isBlocked(ctx context.Context, key string) bool {
	if s.throttle == nil {
		return false
	}
	blocked, err := s.throttle.Blocked(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Msg("login throttle unavailable")
		return false
	}
	return blocked
}

func (s *AuthService) failed(ctx context.Context, key string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.Failure(ctx, key); err != nil {
		s.log.Warn().Err(err).Msg("record login failure")
	}
}

func (s *AuthService) succeeded(ctx context.Context, key string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.Reset(ctx, key); err != nil {
		s.log.Warn().Err(err).Msg("reset login failures")
	}
}
