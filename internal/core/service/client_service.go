package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/repairshop/workshop/internal/core/domain"
	"github.com/repairshop/workshop/internal/core/ports"
)

// maxIdentifierAttempts bounds how often CreateClient re-probes an identifier
// lost to a concurrent insert.
const maxIdentifierAttempts = 5

// ClientService manages client accounts and the credentials issued to them.
type ClientService struct {
	repo   ports.ClientRepository
	hasher ports.PasswordHasher
	queue  ports.NoticeQueue
	log    zerolog.Logger
	now    func() time.Time
}

// NewClientService builds the service. queue may be nil, in which case
// credentials are generated but never delivered.
func NewClientService(repo ports.ClientRepository, hasher ports.PasswordHasher, queue ports.NoticeQueue, log zerolog.Logger) *ClientService {
	return &ClientService{
		repo:   repo,
		hasher: hasher,
		queue:  queue,
		log:    log,
		now:    time.Now,
	}
}

func (s *ClientService) CreateClient(ctx context.Context, in ports.CreateClientInput) (*domain.Client, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	if in.FirstName == "" || in.LastName == "" || in.Phone == "" {
		return nil, domain.BadRequest("first name, last name and phone are required")
	}

	if err := s.checkPhoneFree(ctx, in.Phone); err != nil {
		return nil, err
	}
	if in.Email != "" {
		if err := s.checkEmailFree(ctx, in.Email); err != nil {
			return nil, err
		}
	}

	password, err := GeneratePassword()
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	client := &domain.Client{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Address:      strings.TrimSpace(in.Address),
		Phone:        in.Phone,
		Email:        in.Email,
		PasswordHash: hash,
		Active:       true,
		Notes:        in.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// A concurrent create can claim the probed identifier before the insert.
	var created *domain.Client
	for attempt := 1; ; attempt++ {
		client.Identifier, err = s.nextIdentifier(ctx)
		if err != nil {
			return nil, err
		}
		created, err = s.repo.Create(ctx, client)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrIdentifierTaken) {
			return nil, fmt.Errorf("create client: %w", err)
		}
		if attempt == maxIdentifierAttempts {
			return nil, domain.Conflict("client already exists")
		}
		s.log.Debug().Str("identifier", client.Identifier).Int("attempt", attempt).Msg("identifier taken, retrying")
	}

	s.log.Info().Int64("client_id", created.ID).Str("identifier", created.Identifier).Msg("client created")

	if created.Email != "" && (in.SendCredentials == nil || *in.SendCredentials) {
		s.notify(created, password)
	}
	return created, nil
}

func (s *ClientService) GetClient(ctx context.Context, id int64) (*domain.Client, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *ClientService) ListClients(ctx context.Context) ([]*domain.Client, error) {
	return s.repo.List(ctx)
}

// SearchClients filters after decryption since names are stored encrypted.
func (s *ClientService) SearchClients(ctx context.Context, keyword string) ([]*domain.Client, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return all, nil
	}

	out := make([]*domain.Client, 0)
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.FirstName), keyword) ||
			strings.Contains(strings.ToLower(c.LastName), keyword) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *ClientService) UpdateClient(ctx context.Context, id int64, in ports.UpdateClientInput) (*domain.Client, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" || in.Phone == "" {
		return nil, domain.BadRequest("first name, last name and phone are required")
	}
	if in.Phone != c.Phone {
		if err := s.checkPhoneFree(ctx, in.Phone); err != nil {
			return nil, err
		}
	}
	if in.Email != "" && !strings.EqualFold(in.Email, c.Email) {
		if err := s.checkEmailFree(ctx, in.Email); err != nil {
			return nil, err
		}
	}

	c.FirstName = strings.TrimSpace(in.FirstName)
	c.LastName = strings.TrimSpace(in.LastName)
	c.Address = strings.TrimSpace(in.Address)
	c.Phone = in.Phone
	c.Email = in.Email
	c.Notes = in.Notes
	c.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}
	return c, nil
}

func (s *ClientService) ChangePassword(ctx context.Context, clientID int64, in ports.ChangePasswordInput) error {
	c, err := s.repo.FindByID(ctx, clientID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(in.OldPassword, c.PasswordHash) {
		return domain.BadRequest("old password is incorrect")
	}
	if in.NewPassword != in.ConfirmPassword {
		return domain.ErrPasswordMismatch
	}
	if len(in.NewPassword) < MinPasswordLen {
		return domain.BadRequest(fmt.Sprintf("password must be at least %d characters", MinPasswordLen))
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, c.ID, hash); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

// ResendCredentials replaces the client's password with a fresh one and
// queues it for delivery. The new password is stored before delivery is
// attempted and stays in place if delivery fails.
func (s *ClientService) ResendCredentials(ctx context.Context, clientID int64) error {
	c, err := s.repo.FindByID(ctx, clientID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(c.Email) == "" {
		return domain.BadRequest("client has no email address")
	}

	password, err := GeneratePassword()
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, c.ID, hash); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	s.notify(c, password)
	s.log.Info().Int64("client_id", c.ID).Msg("client credentials reissued")
	return nil
}

func (s *ClientService) ToggleStatus(ctx context.Context, clientID int64) (*domain.Client, error) {
	c, err := s.repo.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	c.Active = !c.Active
	c.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("toggle client status: %w", err)
	}
	return c, nil
}

func (s *ClientService) DeleteClient(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// nextIdentifier starts at count+1 and probes upward past identifiers that
// are already taken, e.g. after deletions.
func (s *ClientService) nextIdentifier(ctx context.Context) (string, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("count clients: %w", err)
	}
	for n++; ; n++ {
		id := domain.FormatIdentifier(n)
		taken, err := s.repo.ExistsByIdentifier(ctx, id)
		if err != nil {
			return "", fmt.Errorf("check identifier: %w", err)
		}
		if !taken {
			return id, nil
		}
	}
}

func (s *ClientService) checkPhoneFree(ctx context.Context, phone string) error {
	taken, err := s.repo.ExistsByPhone(ctx, phone)
	if err != nil {
		return fmt.Errorf("check phone: %w", err)
	}
	if taken {
		return domain.Conflict("phone number already in use")
	}
	return nil
}

func (s *ClientService) checkEmailFree(ctx context.Context, email string) error {
	taken, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if taken {
		return domain.Conflict("email already in use")
	}
	return nil
}

func (s *ClientService) notify(c *domain.Client, password string) {
	if s.queue == nil {
		s.log.Warn().Int64("client_id", c.ID).Msg("no notice queue configured, credentials not sent")
		return
	}
	s.queue.Enqueue(ports.CredentialNotice{
		ClientID:   c.ID,
		FirstName:  c.FirstName,
		LastName:   c.LastName,
		Email:      c.Email,
		Identifier: c.Identifier,
		Password:   password,
	})
}
