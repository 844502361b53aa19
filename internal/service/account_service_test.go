package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/kaie-api/internal/domain"
	apperrors "github.com/spec-kit/kaie-api/pkg/util/errorutil"
)

func TestUpdateProfileRehashesPassword(t *testing.T) {
	h := newHarness(t)
	outcome := h.register(t, "alice@example.com", "Passw0rd!")

	name := "  Alice Liddell "
	newPassword := "N3wSecret!"
	updated, err := h.account.UpdateProfile(context.Background(), outcome.User.ID, ProfileUpdate{
		Name:     &name,
		Password: &newPassword,
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", updated.Name)

	stored, err := h.accounts.GetByID(context.Background(), outcome.User.ID)
	require.NoError(t, err)
	assert.NotEqual(t, newPassword, stored.PasswordHash)

	_, err = h.auth.Login(context.Background(), "alice@example.com", "Passw0rd!")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = h.auth.Login(context.Background(), "alice@example.com", newPassword)
	assert.NoError(t, err)
}

func TestProfileUnknownAccount(t *testing.T) {
	h := newHarness(t)

	_, err := h.account.Profile(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.ToDomainError(err).Code)
}

func TestListPaginates(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 5; i++ {
		h.register(t, fmt.Sprintf("user%d@example.com", i), "Passw0rd!")
	}

	page, err := h.account.List(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Len(t, page.Items, 2)

	last, err := h.account.List(context.Background(), 3, 2)
	require.NoError(t, err)
	assert.Len(t, last.Items, 1)

	clamped, err := h.account.List(context.Background(), 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, clamped.Page)
	assert.Equal(t, maxPageSize, clamped.Limit)
}

func TestAdminUpdateChangesRoleAndStatus(t *testing.T) {
	h := newHarness(t)
	outcome := h.register(t, "bob@example.com", "Passw0rd!")

	role := domain.RoleAdmin
	status := domain.AccountStatusSuspended
	updated, err := h.account.Update(context.Background(), adminActor, outcome.User.ID, AdminUpdate{Role: &role, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, updated.Role)
	assert.Equal(t, domain.AccountStatusSuspended, updated.Status)

	_, err = h.auth.Login(context.Background(), "bob@example.com", "Passw0rd!")
	assert.ErrorIs(t, err, apperrors.ErrAccountNotActive)
}

func TestAdminUpdateRejectsUnknownRole(t *testing.T) {
	h := newHarness(t)
	outcome := h.register(t, "bob@example.com", "Passw0rd!")

	role := domain.Role("root")
	_, err := h.account.Update(context.Background(), adminActor, outcome.User.ID, AdminUpdate{Role: &role})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.ToDomainError(err).Code)
}

func TestDeleteAccount(t *testing.T) {
	h := newHarness(t)
	outcome := h.register(t, "bob@example.com", "Passw0rd!")

	require.NoError(t, h.account.Delete(context.Background(), adminActor, outcome.User.ID))

	err := h.account.Delete(context.Background(), adminActor, outcome.User.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.ToDomainError(err).Code)
}

func TestSuperAdminAccountsRequireSuperAdmin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	bob := h.register(t, "bob@example.com", "Passw0rd!")
	root := h.register(t, "root@example.com", "Passw0rd!")
	superAdmin := domain.RoleSuperAdmin
	_, err := h.accounts.AccountRepository.Update(ctx, root.User.ID, domain.AccountUpdate{Role: &superAdmin})
	require.NoError(t, err)

	self := domain.Identity{ID: bob.User.ID, Role: domain.RoleAdmin}
	_, err = h.account.Update(ctx, self, bob.User.ID, AdminUpdate{Role: &superAdmin})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.ToDomainError(err).Code)

	name := "Renamed"
	_, err = h.account.Update(ctx, adminActor, root.User.ID, AdminUpdate{Name: &name})
	assert.Equal(t, apperrors.CodeForbidden, apperrors.ToDomainError(err).Code)

	err = h.account.Delete(ctx, adminActor, root.User.ID)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.ToDomainError(err).Code)

	stored, err := h.accounts.GetByID(ctx, root.User.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSuperAdmin, stored.Role)
	assert.NotEqual(t, "Renamed", stored.Name)
	bobStored, err := h.accounts.GetByID(ctx, bob.User.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, bobStored.Role)

	promoted, err := h.account.Update(ctx, superAdminActor, bob.User.ID, AdminUpdate{Role: &superAdmin})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSuperAdmin, promoted.Role)
	require.NoError(t, h.account.Delete(ctx, superAdminActor, root.User.ID))
}

func TestAdminActorMissingTargetIsNotFound(t *testing.T) {
	h := newHarness(t)

	err := h.account.Delete(context.Background(), adminActor, "00000000-0000-0000-0000-000000000000")
	assert.Equal(t, apperrors.CodeNotFound, apperrors.ToDomainError(err).Code)
}
