package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/kaie-api/internal/domain"
	"github.com/spec-kit/kaie-api/internal/repository"
	apperrors "github.com/spec-kit/kaie-api/pkg/util/errorutil"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PasswordHasher hashes new passwords for stored accounts.
type PasswordHasher interface {
	HashPassword(ctx context.Context, password string) (string, error)
}

// AccountService exposes profile and admin account management.
type AccountService struct {
	accounts repository.AccountRepository
	hasher   PasswordHasher
	logger   *zap.Logger
}

// NewAccountService builds the service.
func NewAccountService(accounts repository.AccountRepository, hasher PasswordHasher, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{accounts: accounts, hasher: hasher, logger: logger}
}

// ProfileUpdate is a self-service change; nil fields are left untouched.
type ProfileUpdate struct {
	Name     *string
	Avatar   *string
	Password *string
}

// AdminUpdate is an administrative change; nil fields are left untouched.
type AdminUpdate struct {
	Name   *string
	Role   *domain.Role
	Status *domain.AccountStatus
}

// AccountPage is one page of accounts.
type AccountPage struct {
	Items []domain.PublicAccount `json:"items"`
	Total int                    `json:"total"`
	Page  int                    `json:"page"`
	Limit int                    `json:"limit"`
}

// Profile returns the caller's own account.
func (s *AccountService) Profile(ctx context.Context, id string) (domain.PublicAccount, error) {
	return s.Get(ctx, id)
}

// UpdateProfile applies a self-service change. A new password is re-hashed.
func (s *AccountService) UpdateProfile(ctx context.Context, id string, in ProfileUpdate) (domain.PublicAccount, error) {
	update := domain.AccountUpdate{Avatar: in.Avatar}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		update.Name = &name
	}
	if in.Password != nil {
		hash, err := s.hasher.HashPassword(ctx, *in.Password)
		if err != nil {
			return domain.PublicAccount{}, err
		}
		update.PasswordHash = &hash
	}

	account, err := s.accounts.Update(ctx, id, update)
	if err != nil {
		return domain.PublicAccount{}, s.mapStoreError(err, id)
	}
	if in.Password != nil {
		s.logger.Info("password changed", zap.String("account_id", id))
	}
	return account.Sanitize(), nil
}

// List pages through accounts, newest first. page is 1-based.
func (s *AccountService) List(ctx context.Context, page, limit int) (AccountPage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	accounts, total, err := s.accounts.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return AccountPage{}, apperrors.NewInternalError(err)
	}
	items := make([]domain.PublicAccount, 0, len(accounts))
	for _, account := range accounts {
		items = append(items, account.Sanitize())
	}
	return AccountPage{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// Get returns one account.
func (s *AccountService) Get(ctx context.Context, id string) (domain.PublicAccount, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return domain.PublicAccount{}, s.mapStoreError(err, id)
	}
	return account.Sanitize(), nil
}

// Update applies an administrative change to name, role or status on behalf
// of actor.
func (s *AccountService) Update(ctx context.Context, actor domain.Identity, id string, in AdminUpdate) (domain.PublicAccount, error) {
	if in.Role != nil && !in.Role.Valid() {
		return domain.PublicAccount{}, apperrors.NewValidationError("invalid role", map[string]any{"role": string(*in.Role)})
	}
	if in.Status != nil && !in.Status.Valid() {
		return domain.PublicAccount{}, apperrors.NewValidationError("invalid status", map[string]any{"status": string(*in.Status)})
	}

	if err := s.guardSuperAdmin(ctx, actor, id, in.Role != nil && *in.Role == domain.RoleSuperAdmin); err != nil {
		return domain.PublicAccount{}, err
	}

	update := domain.AccountUpdate{Role: in.Role, Status: in.Status}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		update.Name = &name
	}

	account, err := s.accounts.Update(ctx, id, update)
	if err != nil {
		return domain.PublicAccount{}, s.mapStoreError(err, id)
	}
	s.logger.Info("account updated", zap.String("account_id", id), zap.String("actor_id", actor.ID),
		zap.String("role", string(account.Role)), zap.String("status", string(account.Status)))
	return account.Sanitize(), nil
}

// Delete removes an account on behalf of actor.
func (s *AccountService) Delete(ctx context.Context, actor domain.Identity, id string) error {
	if err := s.guardSuperAdmin(ctx, actor, id, false); err != nil {
		return err
	}
	if err := s.accounts.Delete(ctx, id); err != nil {
		return s.mapStoreError(err, id)
	}
	s.logger.Info("account deleted", zap.String("account_id", id), zap.String("actor_id", actor.ID))
	return nil
}

// guardSuperAdmin reserves granting super_admin, and touching an existing
// super_admin account, to super_admin callers.
func (s *AccountService) guardSuperAdmin(ctx context.Context, actor domain.Identity, id string, grants bool) error {
	if actor.Role == domain.RoleSuperAdmin {
		return nil
	}
	forbidden := apperrors.NewForbidden("only super_admin may manage super_admin accounts",
		map[string]any{"required_roles": []string{string(domain.RoleSuperAdmin)}})
	if grants {
		return forbidden
	}
	target, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return s.mapStoreError(err, id)
	}
	if target.Role == domain.RoleSuperAdmin {
		return forbidden
	}
	return nil
}

func (s *AccountService) mapStoreError(err error, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("account", map[string]any{"id": id})
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return apperrors.NewInternalError(err)
}
