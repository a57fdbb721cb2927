package ports

import (
	"context"

	"github.com/repairshop/workshop/internal/core/domain"
)

// ClientRepository persists client records. Implementations decrypt
// sensitive fields on load and encrypt them on write, so every Client that
// crosses this interface holds plaintext.
type ClientRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Client, error)
	// FindByEmail matches case-insensitively.
	FindByEmail(ctx context.Context, email string) (*domain.Client, error)
	// FindByIdentifier matches case-insensitively.
	FindByIdentifier(ctx context.Context, identifier string) (*domain.Client, error)
	// FindByEmailOrIdentifier tries the email first, then the identifier.
	FindByEmailOrIdentifier(ctx context.Context, login string) (*domain.Client, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByIdentifier(ctx context.Context, identifier string) (bool, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context) ([]*domain.Client, error)
	Create(ctx context.Context, c *domain.Client) (*domain.Client, error)
	Update(ctx context.Context, c *domain.Client) error
	// UpdatePassword replaces the stored hash in a single atomic write.
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	MarkCredentialsSent(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// StaffRepository persists internal user accounts.
type StaffRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.StaffUser, error)
	// FindByEmail matches exactly.
	FindByEmail(ctx context.Context, email string) (*domain.StaffUser, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u *domain.StaffUser) (*domain.StaffUser, error)
}
