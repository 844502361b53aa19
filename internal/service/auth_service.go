package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/kaie-api/internal/auth"
	"github.com/spec-kit/kaie-api/internal/domain"
	"github.com/spec-kit/kaie-api/internal/events"
	"github.com/spec-kit/kaie-api/internal/repository"
	apperrors "github.com/spec-kit/kaie-api/pkg/util/errorutil"
)

// AuthService coordinates login, registration, refresh and logout.
type AuthService struct {
	accounts repository.AccountRepository
	tokens   *auth.TokenIssuer
	hasher   *auth.Hasher
	events   events.Dispatcher
	logger   *zap.Logger
	now      func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	Accounts repository.AccountRepository
	Tokens   *auth.TokenIssuer
	Hasher   *auth.Hasher
	Events   events.Dispatcher
	Logger   *zap.Logger
	Clock    func() time.Time
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &AuthService{
		accounts: deps.Accounts,
		tokens:   deps.Tokens,
		hasher:   deps.Hasher,
		events:   deps.Events,
		logger:   logger,
		now:      clock,
	}
}

// LoginOptions carries optional login flags.
type LoginOptions struct {
	RememberMe bool
}

// Login verifies credentials and returns a fresh session. Unknown email and
// wrong password fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string, opts ...LoginOptions) (*domain.SessionOutcome, error) {
	var opt LoginOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	email = domain.NormalizeEmail(email)

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewInternalError(err)
		}
		s.hasher.VerifyAbsent(ctx, password)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.publish(ctx, events.New(events.EventLoginFailed, "", email, events.FailurePayload{Reason: "unknown_email"}))
		return nil, apperrors.ErrInvalidCredentials
	}

	if !s.hasher.Verify(ctx, password, account.PasswordHash) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.publish(ctx, events.New(events.EventLoginFailed, account.ID, email, events.FailurePayload{Reason: "bad_password"}))
		return nil, apperrors.ErrInvalidCredentials
	}

	if !account.IsActive() {
		s.publish(ctx, events.New(events.EventLoginFailed, account.ID, email, events.FailurePayload{Reason: "status_" + string(account.Status)}))
		return nil, apperrors.ErrAccountNotActive
	}

	pair, err := s.issuePair(account)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	loginAt := s.now().UTC()
	if updated, err := s.accounts.Update(ctx, account.ID, domain.AccountUpdate{LastLoginAt: &loginAt}); err != nil {
		s.logger.Warn("failed to record last login", zap.String("account_id", account.ID), zap.Error(err))
	} else {
		account = updated
	}

	s.logger.Info("login succeeded", zap.String("account_id", account.ID), zap.String("email", account.Email))
	s.publish(ctx, events.New(events.EventLoginSucceeded, account.ID, account.Email, events.SessionPayload{Role: account.Role, RememberMe: opt.RememberMe}))

	return &domain.SessionOutcome{TokenPair: pair, User: account.Sanitize()}, nil
}

// Register creates an active user account and signs it in.
func (s *AuthService) Register(ctx context.Context, email, password, confirmPassword, name string) (*domain.SessionOutcome, error) {
	if password != confirmPassword {
		return nil, apperrors.ErrPasswordMismatch
	}
	email = domain.NormalizeEmail(email)

	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.ErrEmailAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewInternalError(err)
	}

	hash, err := s.hashPassword(ctx, password)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Status:       domain.AccountStatusActive,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, apperrors.ErrEmailAlreadyExists
		}
		return nil, apperrors.NewInternalError(err)
	}

	pair, err := s.issuePair(account)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.logger.Info("account registered", zap.String("account_id", account.ID), zap.String("email", account.Email))
	s.publish(ctx, events.New(events.EventAccountRegistered, account.ID, account.Email, nil))

	return &domain.SessionOutcome{TokenPair: pair, User: account.Sanitize()}, nil
}

// Refresh rotates a refresh token into a new token pair. Every failure is the
// same Unauthorized error.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	payload, err := s.tokens.VerifyKind(refreshToken, domain.TokenKindRefresh)
	if err != nil {
		s.refreshFailed(ctx, "", err.Error())
		return nil, apperrors.ErrUnauthorized
	}

	account, err := s.accounts.GetByID(ctx, payload.Subject)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("refresh lookup failed", zap.String("account_id", payload.Subject), zap.Error(err))
		}
		s.refreshFailed(ctx, payload.Subject, "account_missing")
		return nil, apperrors.ErrUnauthorized
	}
	if !account.IsActive() {
		s.refreshFailed(ctx, account.ID, "status_"+string(account.Status))
		return nil, apperrors.ErrUnauthorized
	}

	pair, err := s.issuePair(account)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.New(events.EventTokenRefreshed, account.ID, account.Email, events.SessionPayload{Role: account.Role}))
	return &pair, nil
}

// Logout records the event. Tokens are stateless, so nothing is revoked.
func (s *AuthService) Logout(ctx context.Context, accountID string) error {
	s.logger.Info("logged out", zap.String("account_id", accountID))
	s.publish(ctx, events.New(events.EventLoggedOut, accountID, "", nil))
	return nil
}

// HashPassword exposes the configured hasher to account management.
func (s *AuthService) HashPassword(ctx context.Context, password string) (string, error) {
	return s.hashPassword(ctx, password)
}

func (s *AuthService) hashPassword(ctx context.Context, password string) (string, error) {
	hash, err := s.hasher.Hash(ctx, password)
	if err == nil {
		return hash, nil
	}
	switch {
	case errors.Is(err, bcrypt.ErrPasswordTooLong):
		return "", apperrors.NewValidationError("password is too long", map[string]any{"password": "max 72 bytes"})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "", err
	default:
		return "", apperrors.NewInternalError(err)
	}
}

func (s *AuthService) issuePair(account *domain.Account) (domain.TokenPair, error) {
	claims := domain.TokenPayload{Subject: account.ID, Email: account.Email, Role: account.Role}

	access, _, err := s.tokens.Issue(claims, domain.TokenKindAccess)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, _, err := s.tokens.Issue(claims, domain.TokenKindRefresh)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.TTL(domain.TokenKindAccess) / time.Second),
	}, nil
}

func (s *AuthService) refreshFailed(ctx context.Context, accountID, reason string) {
	s.logger.Info("refresh rejected", zap.String("account_id", accountID), zap.String("reason", reason))
	s.publish(ctx, events.New(events.EventRefreshFailed, accountID, "", events.FailurePayload{Reason: reason}))
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("audit handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
