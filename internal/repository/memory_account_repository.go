package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/kaie-api/internal/domain"
)

// memoryAccountRepository keeps accounts in process memory. It enforces the
// same unique-email contract as the Postgres table.
type memoryAccountRepository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Account
	byEmail map[string]string
	now     func() time.Time
}

// NewMemoryAccountRepository returns an in-process store, used when no
// database is configured and in tests.
func NewMemoryAccountRepository() AccountRepository {
	return &memoryAccountRepository{
		byID:    make(map[string]*domain.Account),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (r *memoryAccountRepository) Create(_ context.Context, account *domain.Account) error {
	email := domain.NormalizeEmail(account.Email)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[email]; exists {
		return ErrEmailTaken
	}

	now := r.now().UTC()
	account.ID = uuid.NewString()
	account.Email = email
	account.CreatedAt = now
	account.UpdatedAt = now

	stored := *account
	r.byID[stored.ID] = &stored
	r.byEmail[email] = stored.ID
	return nil
}

func (r *memoryAccountRepository) Update(_ context.Context, id string, update domain.AccountUpdate) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if update.Name != nil {
		stored.Name = *update.Name
	}
	if update.PasswordHash != nil {
		stored.PasswordHash = *update.PasswordHash
	}
	if update.Role != nil {
		stored.Role = *update.Role
	}
	if update.Status != nil {
		stored.Status = *update.Status
	}
	if update.Avatar != nil {
		avatar := *update.Avatar
		stored.Avatar = &avatar
	}
	if update.LastLoginAt != nil {
		at := *update.LastLoginAt
		stored.LastLoginAt = &at
	}
	stored.UpdatedAt = r.now().UTC()
	return clone(stored), nil
}

func (r *memoryAccountRepository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(stored), nil
}

func (r *memoryAccountRepository) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *memoryAccountRepository) List(_ context.Context, offset, limit int) ([]*domain.Account, int, error) {
	r.mu.RLock()
	all := make([]*domain.Account, 0, len(r.byID))
	for _, stored := range r.byID {
		all = append(all, clone(stored))
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	if offset >= total {
		return []*domain.Account{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *memoryAccountRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byEmail, stored.Email)
	delete(r.byID, id)
	return nil
}

func clone(account *domain.Account) *domain.Account {
	out := *account
	if account.Avatar != nil {
		avatar := *account.Avatar
		out.Avatar = &avatar
	}
	if account.LastLoginAt != nil {
		at := *account.LastLoginAt
		out.LastLoginAt = &at
	}
	return &out
}
