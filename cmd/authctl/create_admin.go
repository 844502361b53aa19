package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/kaie-api/internal/api/dto"
	"github.com/spec-kit/kaie-api/internal/auth"
	"github.com/spec-kit/kaie-api/internal/config"
	"github.com/spec-kit/kaie-api/internal/domain"
	"github.com/spec-kit/kaie-api/internal/persistence"
	"github.com/spec-kit/kaie-api/internal/repository"
)

type adminOptions struct {
	Email    string
	Password string
	Name     string
	Role     string
}

func createAdminCmd() *cobra.Command {
	var opts adminOptions

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an active admin or super_admin account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(cmd.Context(), func(ctx context.Context, cfg *config.Config, pg *persistence.Postgres, logger *zap.Logger) error {
				accounts := repository.NewAccountRepository(pg.PoolHandle())
				hasher := auth.NewHasher(cfg.Auth.BcryptCost, nil)

				account, err := createAdmin(ctx, accounts, hasher, opts)
				if err != nil {
					return err
				}
				logger.Info("admin account created", zap.String("account_id", account.ID), zap.String("role", string(account.Role)))
				fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", account.Role, account.Email, account.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&opts.Password, "password", "", "Account password")
	cmd.Flags().StringVar(&opts.Name, "name", "Administrator", "Display name")
	cmd.Flags().StringVar(&opts.Role, "role", string(domain.RoleAdmin), "admin or super_admin")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func createAdmin(ctx context.Context, accounts repository.AccountRepository, hasher *auth.Hasher, opts adminOptions) (*domain.Account, error) {
	role := domain.Role(strings.TrimSpace(opts.Role))
	if role != domain.RoleAdmin && role != domain.RoleSuperAdmin {
		return nil, fmt.Errorf("role must be %s or %s", domain.RoleAdmin, domain.RoleSuperAdmin)
	}
	if err := dto.Validate(dto.RegisterRequest{
		Email:           opts.Email,
		Password:        opts.Password,
		ConfirmPassword: opts.Password,
		Name:            opts.Name,
	}); err != nil {
		return nil, err
	}

	hash, err := hasher.Hash(ctx, opts.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &domain.Account{
		Email:        domain.NormalizeEmail(opts.Email),
		Name:         strings.TrimSpace(opts.Name),
		PasswordHash: hash,
		Role:         role,
		Status:       domain.AccountStatusActive,
	}
	if err := accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, fmt.Errorf("account %s already exists", account.Email)
		}
		return nil, err
	}
	return account, nil
}
