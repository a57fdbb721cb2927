package domain

import (
	"strings"
	"time"
)

// Role is the authorization role carried by a principal.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleSecretary  Role = "SECRETAIRE"
	RoleTechnician Role = "TECHNICIEN"
	RoleClient     Role = "CLIENT"
)

// StaffRoles lists the roles a staff account may hold.
var StaffRoles = []Role{RoleAdmin, RoleSecretary, RoleTechnician}

// IsStaff reports whether r is one of the internal staff roles.
func (r Role) IsStaff() bool {
	for _, s := range StaffRoles {
		if r == s {
			return true
		}
	}
	return false
}

// ParseStaffRole normalises s and returns the matching staff role.
func ParseStaffRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.IsStaff()
}

// StaffUser models an internal account (admin, secretary, technician).
type StaffUser struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal projects the account into its authorization identity.
func (u *StaffUser) Principal() StaffPrincipal {
	return StaffPrincipal{
		ID:           u.ID,
		Email:        u.Email,
		StaffRole:    u.Role,
		PasswordHash: u.PasswordHash,
		Active:       u.Active,
	}
}
