package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/repairshop/workshop/internal/core/domain"
	"github.com/repairshop/workshop/internal/core/ports"
)

type stubClientRepo struct {
	mu      sync.Mutex
	clients map[int64]*domain.Client
	nextID  int64
	err     error
	// onCreate runs before each insert; a non-nil result fails it.
	onCreate func(c *domain.Client) error
}

func newStubClientRepo(clients ...*domain.Client) *stubClientRepo {
	r := &stubClientRepo{clients: make(map[int64]*domain.Client)}
	for _, c := range clients {
		cp := *c
		if cp.ID > r.nextID {
			r.nextID = cp.ID
		}
		r.clients[cp.ID] = &cp
	}
	return r
}

func (r *stubClientRepo) find(match func(*domain.Client) bool) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, c := range r.clients {
		if match(c) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrClientNotFound
}

func (r *stubClientRepo) FindByID(_ context.Context, id int64) (*domain.Client, error) {
	return r.find(func(c *domain.Client) bool { return c.ID == id })
}

func (r *stubClientRepo) FindByEmail(_ context.Context, email string) (*domain.Client, error) {
	return r.find(func(c *domain.Client) bool { return c.Email != "" && strings.EqualFold(c.Email, email) })
}

func (r *stubClientRepo) FindByIdentifier(_ context.Context, identifier string) (*domain.Client, error) {
	return r.find(func(c *domain.Client) bool { return strings.EqualFold(c.Identifier, identifier) })
}

func (r *stubClientRepo) FindByEmailOrIdentifier(ctx context.Context, login string) (*domain.Client, error) {
	if c, err := r.FindByEmail(ctx, login); err == nil {
		return c, nil
	}
	return r.FindByIdentifier(ctx, login)
}

func (r *stubClientRepo) exists(match func(*domain.Client) bool) (bool, error) {
	_, err := r.find(match)
	if err == domain.ErrClientNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *stubClientRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	return r.exists(func(c *domain.Client) bool { return strings.EqualFold(c.Email, email) })
}

func (r *stubClientRepo) ExistsByIdentifier(_ context.Context, identifier string) (bool, error) {
	return r.exists(func(c *domain.Client) bool { return strings.EqualFold(c.Identifier, identifier) })
}

func (r *stubClientRepo) ExistsByPhone(_ context.Context, phone string) (bool, error) {
	return r.exists(func(c *domain.Client) bool { return c.Phone == phone })
}

func (r *stubClientRepo) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.clients)), r.err
}

func (r *stubClientRepo) List(context.Context) ([]*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make([]*domain.Client, 0, len(r.clients))
	for _, c := range r.clients {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubClientRepo) Create(_ context.Context, c *domain.Client) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if r.onCreate != nil {
		if err := r.onCreate(c); err != nil {
			return nil, err
		}
	}
	r.nextID++
	cp := *c
	cp.ID = r.nextID
	r.clients[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *stubClientRepo) Update(_ context.Context, c *domain.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[c.ID]; !ok {
		return domain.ErrClientNotFound
	}
	cp := *c
	r.clients[c.ID] = &cp
	return nil
}

func (r *stubClientRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	if !ok {
		return domain.ErrClientNotFound
	}
	c.PasswordHash = hash
	return nil
}

func (r *stubClientRepo) MarkCredentialsSent(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	if !ok {
		return domain.ErrClientNotFound
	}
	c.CredentialsSent = true
	return nil
}

func (r *stubClientRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[id]; !ok {
		return domain.ErrClientNotFound
	}
	delete(r.clients, id)
	return nil
}

func (r *stubClientRepo) get(id int64) *domain.Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clients[id]
}

type stubStaffRepo struct {
	users  map[int64]*domain.StaffUser
	nextID int64
}

func newStubStaffRepo(users ...*domain.StaffUser) *stubStaffRepo {
	r := &stubStaffRepo{users: make(map[int64]*domain.StaffUser)}
	for _, u := range users {
		cp := *u
		if cp.ID > r.nextID {
			r.nextID = cp.ID
		}
		r.users[cp.ID] = &cp
	}
	return r
}

func (r *stubStaffRepo) FindByID(_ context.Context, id int64) (*domain.StaffUser, error) {
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrStaffNotFound
}

func (r *stubStaffRepo) FindByEmail(_ context.Context, email string) (*domain.StaffUser, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrStaffNotFound
}

func (r *stubStaffRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

func (r *stubStaffRepo) Create(_ context.Context, u *domain.StaffUser) (*domain.StaffUser, error) {
	r.nextID++
	cp := *u
	cp.ID = r.nextID
	r.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

// plainHasher keeps tests fast; bcrypt is covered in password_test.go.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (plainHasher) Verify(password, hash string) bool    { return hash == "hashed:"+password }

type stubQueue struct {
	mu      sync.Mutex
	notices []ports.CredentialNotice
}

func (q *stubQueue) Enqueue(n ports.CredentialNotice) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.notices = append(q.notices, n)
}

type stubThrottle struct {
	blocked  bool
	failures map[string]int
	resets   map[string]int
}

func newStubThrottle() *stubThrottle {
	return &stubThrottle{failures: make(map[string]int), resets: make(map[string]int)}
}

func (t *stubThrottle) Blocked(context.Context, string) (bool, error) { return t.blocked, nil }

func (t *stubThrottle) Failure(_ context.Context, login string) error {
	t.failures[login]++
	return nil
}

func (t *stubThrottle) Reset(_ context.Context, login string) error {
	t.resets[login]++
	return nil
}
