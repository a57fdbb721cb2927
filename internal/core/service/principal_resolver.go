package service

import (
	"context"
	"fmt"

	"github.com/repairshop/workshop/internal/core/domain"
	"github.com/repairshop/workshop/internal/core/ports"
)

// PrincipalResolver reloads the account behind decoded token claims so the
// principal reflects the current active flag.
type PrincipalResolver struct {
	clients ports.ClientRepository
	staff   ports.StaffRepository
}

func NewPrincipalResolver(clients ports.ClientRepository, staff ports.StaffRepository) *PrincipalResolver {
	return &PrincipalResolver{clients: clients, staff: staff}
}

// Resolve looks clients up by the email claim, or by the identifier subject
// for clients without an email, and staff users by the subject email. The
// account found must carry the token's id claim.
func (r *PrincipalResolver) Resolve(ctx context.Context, claims *domain.TokenClaims) (domain.Principal, error) {
	if claims == nil {
		return nil, domain.ErrTokenInvalid
	}

	switch claims.Kind {
	case domain.KindClient:
		var (
			c   *domain.Client
			err error
		)
		if claims.Email != "" {
			c, err = r.clients.FindByEmail(ctx, claims.Email)
		} else {
			c, err = r.clients.FindByIdentifier(ctx, claims.Subject)
		}
		if err != nil {
			return nil, fmt.Errorf("resolve client: %w", err)
		}
		if c.ID != claims.ID {
			return nil, fmt.Errorf("resolve client: %w: id %d does not match account %d", domain.ErrTokenInvalid, claims.ID, c.ID)
		}
		return c.Principal(), nil
	case domain.KindStaff:
		u, err := r.staff.FindByEmail(ctx, claims.Subject)
		if err != nil {
			return nil, fmt.Errorf("resolve staff user: %w", err)
		}
		if u.ID != claims.ID {
			return nil, fmt.Errorf("resolve staff user: %w: id %d does not match account %d", domain.ErrTokenInvalid, claims.ID, u.ID)
		}
		return u.Principal(), nil
	default:
		return nil, fmt.Errorf("resolve principal: %w", domain.ErrTokenMalformed)
	}
}
