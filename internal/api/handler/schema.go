package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Auth ---

type staffLoginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// clientLoginRequest is accepted by the unified login: Identifier may be a
// client identifier, a client email or a staff email.
type clientLoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password"   validate:"required"`
}

type loginResponse struct {
	ID         int64     `json:"id"`
	Identifier string    `json:"identifier,omitempty"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email,omitempty"`
	Role       string    `json:"role"`
	Type       string    `json:"type"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expires_at"`
	Message    string    `json:"message"`
}

type verifyResponse struct {
	Authenticated bool       `json:"authenticated"`
	ID            int64      `json:"id,omitempty"`
	Subject       string     `json:"subject,omitempty"`
	Identifier    string     `json:"identifier,omitempty"`
	Role          string     `json:"role,omitempty"`
	Type          string     `json:"type,omitempty"`
	Email         string     `json:"email,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

type changePasswordRequest struct {
	OldPassword     string `json:"old_password"     validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// --- Clients ---

type clientRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"  validate:"required"`
	Address   string `json:"address"    validate:"required"`
	Phone     string `json:"phone"      validate:"required"`
	Email     string `json:"email"      validate:"required,email"`
	Notes     string `json:"notes"`
	// SendCredentials defaults to true.
	SendCredentials *bool `json:"send_credentials"`
}

type clientResponse struct {
	ID              int64     `json:"id"`
	Identifier      string    `json:"identifier"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Address         string    `json:"address"`
	Phone           string    `json:"phone"`
	Email           string    `json:"email,omitempty"`
	Active          bool      `json:"active"`
	CredentialsSent bool      `json:"credentials_sent"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// --- Staff ---

type staffRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"  validate:"required"`
	Email     string `json:"email"      validate:"required,email"`
	Password  string `json:"password"   validate:"required,min=8"`
	Role      string `json:"role"       validate:"required,oneof=ADMIN SECRETAIRE TECHNICIEN"`
}

type staffResponse struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
