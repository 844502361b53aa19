package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/kaie-api/internal/auth"
	"github.com/spec-kit/kaie-api/internal/domain"
	"github.com/spec-kit/kaie-api/internal/repository"
)

func TestCreateAdmin(t *testing.T) {
	accounts := repository.NewMemoryAccountRepository()
	hasher := auth.NewHasher(bcrypt.MinCost, nil)
	ctx := context.Background()

	account, err := createAdmin(ctx, accounts, hasher, adminOptions{
		Email:    "Root@Example.com",
		Password: "Sup3rSecret!",
		Name:     "Root",
		Role:     "super_admin",
	})
	require.NoError(t, err)
	assert.Equal(t, "root@example.com", account.Email)
	assert.Equal(t, domain.RoleSuperAdmin, account.Role)
	assert.True(t, account.IsActive())
	assert.True(t, hasher.Verify(ctx, "Sup3rSecret!", account.PasswordHash))

	_, err = createAdmin(ctx, accounts, hasher, adminOptions{
		Email: "root@example.com", Password: "Sup3rSecret!", Name: "Root", Role: "admin",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestCreateAdminRejectsInput(t *testing.T) {
	accounts := repository.NewMemoryAccountRepository()
	hasher := auth.NewHasher(bcrypt.MinCost, nil)

	_, err := createAdmin(context.Background(), accounts, hasher, adminOptions{
		Email: "a@example.com", Password: "Sup3rSecret!", Name: "A user", Role: "user",
	})
	assert.Error(t, err)

	_, err = createAdmin(context.Background(), accounts, hasher, adminOptions{
		Email: "a@example.com", Password: "weak", Name: "A user", Role: "admin",
	})
	assert.Error(t, err)
}

func TestRootCommandWiring(t *testing.T) {
	root := rootCmd()
	names := []string{}
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"migrate", "create-admin"}, names)
}
