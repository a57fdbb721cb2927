package ports

import (
	"context"

	"github.com/repairshop/workshop/internal/core/domain"
)

// CreateClientInput carries the data needed to open a client account.
type CreateClientInput struct {
	FirstName string
	LastName  string
	Address   string
	Phone     string
	Email     string
	Notes     string
	// SendCredentials defaults to true when nil.
	SendCredentials *bool
}

// UpdateClientInput replaces a client's contact details.
type UpdateClientInput struct {
	FirstName string
	LastName  string
	Address   string
	Phone     string
	Email     string
	Notes     string
}

// ChangePasswordInput carries a client's password change request.
type ChangePasswordInput struct {
	OldPassword     string
	NewPassword     string
	ConfirmPassword string
}

// ClientService manages client accounts and their login credentials.
type ClientService interface {
	CreateClient(ctx context.Context, in CreateClientInput) (*domain.Client, error)
	GetClient(ctx context.Context, id int64) (*domain.Client, error)
	ListClients(ctx context.Context) ([]*domain.Client, error)
	// SearchClients matches keyword against first and last names.
	SearchClients(ctx context.Context, keyword string) ([]*domain.Client, error)
	UpdateClient(ctx context.Context, id int64, in UpdateClientInput) (*domain.Client, error)
	ChangePassword(ctx context.Context, clientID int64, in ChangePasswordInput) error
	ResendCredentials(ctx context.Context, clientID int64) error
	ToggleStatus(ctx context.Context, clientID int64) (*domain.Client, error)
	DeleteClient(ctx context.Context, id int64) error
}

// CreateStaffInput carries the data needed to open a staff account.
type CreateStaffInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      string
}

// StaffService manages internal accounts.
type StaffService interface {
	CreateStaff(ctx context.Context, in CreateStaffInput) (*domain.StaffUser, error)
	GetStaff(ctx context.Context, id int64) (*domain.StaffUser, error)
}
