package domain

// Kind discriminates the identity space a principal or token belongs to.
// The values are the ones carried in the token "type" claim.
type Kind string

const (
	KindStaff  Kind = "USER"
	KindClient Kind = "CLIENT"
)

// Principal is the authenticated identity attached to a request. It is a
// closed sum: only StaffPrincipal and ClientPrincipal implement it.
type Principal interface {
	Kind() Kind
	Role() Role
	AccountID() int64
	// Subject is the login handle embedded as the token subject.
	Subject() string
	// Locked reports whether the account behind the principal is disabled.
	Locked() bool

	sealed()
}

// StaffPrincipal is an internal user identity.
type StaffPrincipal struct {
	ID           int64
	Email        string
	StaffRole    Role
	PasswordHash string
	Active       bool
}

func (p StaffPrincipal) Kind() Kind       { return KindStaff }
func (p StaffPrincipal) Role() Role       { return p.StaffRole }
func (p StaffPrincipal) AccountID() int64 { return p.ID }
func (p StaffPrincipal) Subject() string  { return p.Email }
func (p StaffPrincipal) Locked() bool     { return !p.Active }
func (StaffPrincipal) sealed()            {}

// ClientPrincipal is an external client identity.
type ClientPrincipal struct {
	ID           int64
	Identifier   string
	Email        string
	PasswordHash string
	Active       bool
}

func (p ClientPrincipal) Kind() Kind       { return KindClient }
func (p ClientPrincipal) Role() Role       { return RoleClient }
func (p ClientPrincipal) AccountID() int64 { return p.ID }
func (p ClientPrincipal) Subject() string  { return p.Identifier }
func (p ClientPrincipal) Locked() bool     { return !p.Active }
func (ClientPrincipal) sealed()            {}

// HasRole reports whether p holds one of roles. A nil or locked principal
// holds no role.
func HasRole(p Principal, roles ...Role) bool {
	if p == nil || p.Locked() {
		return false
	}
	for _, r := range roles {
		if p.Role() == r {
			return true
		}
	}
	return false
}
