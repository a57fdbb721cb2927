package domain

import (
	"fmt"
	"time"
)

// IdentifierPrefix is the fixed prefix of client login identifiers.
const IdentifierPrefix = "CLT-"

// FormatIdentifier renders the n-th client identifier, e.g. CLT-00042.
func FormatIdentifier(n int64) string {
	return fmt.Sprintf("%s%05d", IdentifierPrefix, n)
}

// Client is an external customer of the repair shop. FirstName, LastName,
// Address, Phone and Identifier are encrypted at rest.
type Client struct {
	ID              int64     `json:"id"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Address         string    `json:"address"`
	Phone           string    `json:"phone"`
	Identifier      string    `json:"identifier"`
	Email           string    `json:"email,omitempty"`
	PasswordHash    string    `json:"-"`
	Active          bool      `json:"active"`
	CredentialsSent bool      `json:"credentials_sent"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Principal projects the client into its authorization identity.
func (c *Client) Principal() ClientPrincipal {
	return ClientPrincipal{
		ID:           c.ID,
		Identifier:   c.Identifier,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		Active:       c.Active,
	}
}
