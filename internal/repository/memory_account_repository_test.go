package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/kaie-api/internal/domain"
)

func newAccount(email string) *domain.Account {
	return &domain.Account{
		Email:        email,
		Name:         "Alice",
		PasswordHash: "hash",
		Role:         domain.RoleUser,
		Status:       domain.AccountStatusActive,
	}
}

func TestMemoryCreateAndLookup(t *testing.T) {
	repo := NewMemoryAccountRepository()
	ctx := context.Background()

	account := newAccount("Alice@Example.com")
	require.NoError(t, repo.Create(ctx, account))
	assert.NotEmpty(t, account.ID)
	assert.Equal(t, "alice@example.com", account.Email)
	assert.False(t, account.CreatedAt.IsZero())

	byEmail, err := repo.GetByEmail(ctx, "ALICE@example.COM")
	require.NoError(t, err)
	assert.Equal(t, account.ID, byEmail.ID)

	byID, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", byID.Email)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRejectsDuplicateEmail(t *testing.T) {
	repo := NewMemoryAccountRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newAccount("alice@example.com")))
	err := repo.Create(ctx, newAccount(" ALICE@example.com "))
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestMemoryConcurrentCreateSameEmail(t *testing.T) {
	repo := NewMemoryAccountRepository()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		taken   int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Create(ctx, newAccount("race@example.com"))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				success++
			} else if assert.ErrorIs(t, err, ErrEmailTaken) {
				taken++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, 15, taken)
	_, total, err := repo.List(ctx, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestMemoryPartialUpdate(t *testing.T) {
	repo := NewMemoryAccountRepository()
	ctx := context.Background()
	account := newAccount("alice@example.com")
	require.NoError(t, repo.Create(ctx, account))

	suspended := domain.AccountStatusSuspended
	now := time.Now().UTC()
	updated, err := repo.Update(ctx, account.ID, domain.AccountUpdate{Status: &suspended, LastLoginAt: &now})
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusSuspended, updated.Status)
	assert.Equal(t, "Alice", updated.Name)
	assert.Equal(t, "hash", updated.PasswordHash)
	require.NotNil(t, updated.LastLoginAt)
	assert.True(t, updated.LastLoginAt.Equal(now))

	updated.Name = "mutated"
	again, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", again.Name)

	_, err = repo.Update(ctx, "missing", domain.AccountUpdate{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryListAndDelete(t *testing.T) {
	repo := NewMemoryAccountRepository()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, newAccount(fmt.Sprintf("user%d@example.com", i))))
	}

	page, total, err := repo.List(ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, page, 2)

	empty, _, err := repo.List(ctx, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)

	victim, err := repo.GetByEmail(ctx, "user0@example.com")
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, victim.ID))
	assert.ErrorIs(t, repo.Delete(ctx, victim.ID), ErrNotFound)

	require.NoError(t, repo.Create(ctx, newAccount("user0@example.com")))
}
