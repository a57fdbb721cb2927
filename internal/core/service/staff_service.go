package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/repairshop/workshop/internal/core/domain"
	"github.com/repairshop/workshop/internal/core/ports"
)

// StaffService manages internal user accounts.
type StaffService struct {
	repo   ports.StaffRepository
	hasher ports.PasswordHasher
	now    func() time.Time
}

func NewStaffService(repo ports.StaffRepository, hasher ports.PasswordHasher) *StaffService {
	return &StaffService{repo: repo, hasher: hasher, now: time.Now}
}

func (s *StaffService) CreateStaff(ctx context.Context, in ports.CreateStaffInput) (*domain.StaffUser, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.BadRequest("email and password are required")
	}
	if len(in.Password) < MinPasswordLen {
		return nil, domain.BadRequest(fmt.Sprintf("password must be at least %d characters", MinPasswordLen))
	}
	role, ok := domain.ParseStaffRole(in.Role)
	if !ok {
		return nil, domain.BadRequest("unknown staff role")
	}

	taken, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, domain.Conflict("email already in use")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	return s.repo.Create(ctx, &domain.StaffUser{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (s *StaffService) GetStaff(ctx context.Context, id int64) (*domain.StaffUser, error) {
	return s.repo.FindByID(ctx, id)
}
