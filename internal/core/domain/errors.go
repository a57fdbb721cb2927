package domain

import (
	"errors"
	"fmt"
)

// Public messages. They never reveal which part of a login was wrong.
const (
	MsgBadCredentials  = "login or password incorrect"
	MsgAccountDisabled = "account disabled"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials covers unknown principals and wrong passwords alike.
	ErrInvalidCredentials = fmt.Errorf("%w: bad credentials", ErrUnauthorized)
	ErrAccountDisabled    = fmt.Errorf("%w: account disabled", ErrUnauthorized)

	ErrUnauthenticated = errors.New("authentication required")
	ErrTokenExpired    = errors.New("token expired")
	ErrTokenInvalid    = errors.New("token invalid")
	ErrForbidden       = errors.New("access forbidden")

	ErrClientNotFound = errors.New("client not found")
	ErrStaffNotFound  = errors.New("staff user not found")

	ErrBadRequest       = errors.New("bad request")
	ErrPasswordMismatch = BadRequest("passwords do not match")
	ErrAlreadyExists    = errors.New("already exists")
	ErrTooManyAttempts  = errors.New("too many login attempts")
	ErrIdentifierTaken  = fmt.Errorf("%w: identifier taken", ErrAlreadyExists)
)

// AuthError is a login failure. Public is safe to show to callers; Reason is
// the precise internal cause and is only ever logged.
type AuthError struct {
	Public string
	Reason string
	Err    error
}

func (e *AuthError) Error() string { return e.Public }
func (e *AuthError) Unwrap() error { return e.Err }

// NewBadCredentials reports an unknown principal or a wrong password.
func NewBadCredentials(reason string) error {
	return &AuthError{Public: MsgBadCredentials, Reason: reason, Err: ErrInvalidCredentials}
}

// NewAccountDisabled reports a login against an inactive account.
func NewAccountDisabled(reason string) error {
	return &AuthError{Public: MsgAccountDisabled, Reason: reason, Err: ErrAccountDisabled}
}

// AuthReason returns the internal reason of an AuthError, or err's text.
func AuthReason(err error) string {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Reason
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// BadRequest wraps msg as an ErrBadRequest whose text is msg.
func BadRequest(msg string) error {
	return &requestError{msg: msg, kind: ErrBadRequest}
}

// Conflict wraps msg as an ErrAlreadyExists whose text is msg.
func Conflict(msg string) error {
	return &requestError{msg: msg, kind: ErrAlreadyExists}
}

type requestError struct {
	msg  string
	kind error
}

func (e *requestError) Error() string { return e.msg }
func (e *requestError) Unwrap() error { return e.kind }

// Token failures other than expiry are collapsed into ErrTokenInvalid for
// callers but stay distinguishable internally.
var (
	ErrTokenMalformed    = fmt.Errorf("%w: malformed", ErrTokenInvalid)
	ErrTokenBadSignature = fmt.Errorf("%w: bad signature", ErrTokenInvalid)
)

// NewUnknownPrincipal reports a login handle that matched no account. It reads
// as bad credentials to callers and still matches notFound with errors.Is.
func NewUnknownPrincipal(reason string, notFound error) error {
	return &AuthError{
		Public: MsgBadCredentials,
		Reason: reason,
		Err:    fmt.Errorf("%w: %w", ErrInvalidCredentials, notFound),
	}
}
