package auth

import (
	"context"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is used when the configured cost is out of bcrypt's range.
const DefaultBcryptCost = 12

// Runner executes CPU-bound work off the calling goroutine's critical path.
type Runner interface {
	Do(ctx context.Context, fn func()) error
}

// Hasher hashes and verifies passwords with bcrypt.
type Hasher struct {
	cost   int
	runner Runner

	dummyOnce sync.Once
	dummy     []byte
}

// NewHasher builds a hasher. runner may be nil, in which case hashing runs
// inline on the caller's goroutine.
func NewHasher(cost int, runner Runner) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &Hasher{cost: cost, runner: runner}
}

// Cost returns the bcrypt work factor in use.
func (h *Hasher) Cost() int {
	return h.cost
}

// Hash returns a salted bcrypt hash of password. The empty password is allowed.
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	var (
		hashed []byte
		err    error
	)
	if runErr := h.run(ctx, func() {
		hashed, err = bcrypt.GenerateFromPassword([]byte(password), h.cost)
	}); runErr != nil {
		return "", runErr
	}
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether password matches hashed. A malformed hash or a
// cancelled context yields false.
func (h *Hasher) Verify(ctx context.Context, password, hashed string) bool {
	var err error
	if runErr := h.run(ctx, func() {
		err = bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password))
	}); runErr != nil {
		return false
	}
	return err == nil
}

// VerifyAbsent spends the same bcrypt work as Verify for a caller that has no
// stored hash to compare against, so a missing account cannot be told apart
// from a wrong password by latency. It always fails.
func (h *Hasher) VerifyAbsent(ctx context.Context, password string) bool {
	_ = h.run(ctx, func() {
		h.dummyOnce.Do(func() {
			h.dummy, _ = bcrypt.GenerateFromPassword([]byte("absent-account"), h.cost)
		})
		_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
	})
	return false
}

func (h *Hasher) run(ctx context.Context, fn func()) error {
	if h.runner == nil {
		fn()
		return nil
	}
	return h.runner.Do(ctx, fn)
}
