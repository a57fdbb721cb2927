package domain

import "time"

// TokenClaims is the decoded content of a bearer token.
type TokenClaims struct {
	Subject   string
	ID        int64
	Role      Role
	Kind      Kind
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Token is a signed bearer token together with the claims it asserts.
type Token struct {
	Raw    string
	Claims TokenClaims
}
