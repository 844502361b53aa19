package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/kaie-api/internal/auth"
	"github.com/spec-kit/kaie-api/internal/domain"
	"github.com/spec-kit/kaie-api/internal/events"
	"github.com/spec-kit/kaie-api/internal/repository"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// spyRepository counts writes and can be told to fail updates.
type spyRepository struct {
	repository.AccountRepository
	creates     atomic.Int32
	failUpdates atomic.Bool
}

func (r *spyRepository) Create(ctx context.Context, account *domain.Account) error {
	r.creates.Add(1)
	return r.AccountRepository.Create(ctx, account)
}

func (r *spyRepository) Update(ctx context.Context, id string, update domain.AccountUpdate) (*domain.Account, error) {
	if r.failUpdates.Load() {
		return nil, errors.New("store unavailable")
	}
	return r.AccountRepository.Update(ctx, id, update)
}

var (
	adminActor      = domain.Identity{ID: "admin-1", Email: "admin@example.com", Role: domain.RoleAdmin}
	superAdminActor = domain.Identity{ID: "root-1", Email: "root@example.com", Role: domain.RoleSuperAdmin}
)

// countingRunner runs hashing inline and counts each bcrypt job.
type countingRunner struct {
	jobs atomic.Int32
}

func (r *countingRunner) Do(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.jobs.Add(1)
	fn()
	return nil
}

type harness struct {
	clock    *testClock
	hashJobs *countingRunner
	accounts *spyRepository
	tokens   *auth.TokenIssuer
	auth     *AuthService
	account  *AccountService

	mu     sync.Mutex
	events []events.Event
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clock:    &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		hashJobs: &countingRunner{},
		accounts: &spyRepository{AccountRepository: repository.NewMemoryAccountRepository()},
	}
	h.tokens = auth.NewTokenIssuer("test-secret", 15*time.Minute, 7*24*time.Hour,
		auth.WithIssuer("kaie-api"), auth.WithClock(h.clock.Now))

	dispatcher := events.NewInMemoryDispatcher()
	for _, eventType := range events.AllEventTypes {
		dispatcher.Subscribe(eventType, func(_ context.Context, e events.Event) error {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.events = append(h.events, e)
			return nil
		})
	}

	h.auth = NewAuthService(AuthDependencies{
		Accounts: h.accounts,
		Tokens:   h.tokens,
		Hasher:   auth.NewHasher(bcrypt.MinCost, h.hashJobs),
		Events:   dispatcher,
		Clock:    h.clock.Now,
	})
	h.account = NewAccountService(h.accounts, h.auth, nil)
	return h
}

func (h *harness) eventTypes() []events.EventType {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]events.EventType, 0, len(h.events))
	for _, e := range h.events {
		out = append(out, e.Type)
	}
	return out
}

func (h *harness) register(t *testing.T, email, password string) *domain.SessionOutcome {
	t.Helper()
	outcome, err := h.auth.Register(context.Background(), email, password, password, "Test User")
	require.NoError(t, err)
	return outcome
}

func (h *harness) setStatus(t *testing.T, id string, status domain.AccountStatus) {
	t.Helper()
	_, err := h.accounts.AccountRepository.Update(context.Background(), id, domain.AccountUpdate{Status: &status})
	require.NoError(t, err)
}
