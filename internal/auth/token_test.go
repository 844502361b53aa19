package auth

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/kaie-api/internal/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func alicePayload() domain.TokenPayload {
	return domain.TokenPayload{Subject: "acc-1", Email: "alice@example.com", Role: domain.RoleAdmin}
}

func TestIssueAndVerify(t *testing.T) {
	clock := newFakeClock()
	issuer := NewTokenIssuer("secret", 0, 0, WithIssuer("kaie"), WithClock(clock.Now))

	raw, issued, err := issuer.Issue(alicePayload(), domain.TokenKindAccess)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, issued.ExpiresAt.Sub(issued.IssuedAt))
	assert.NotEmpty(t, issued.ID)

	payload, err := issuer.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", payload.Subject)
	assert.Equal(t, "alice@example.com", payload.Email)
	assert.Equal(t, domain.RoleAdmin, payload.Role)
	assert.Equal(t, domain.TokenKindAccess, payload.Kind)
	assert.Equal(t, issued.ID, payload.ID)
	assert.True(t, payload.ExpiresAt.After(payload.IssuedAt))
}

func TestRefreshLifetime(t *testing.T) {
	clock := newFakeClock()
	issuer := NewTokenIssuer("secret", 0, 0, WithClock(clock.Now))

	_, issued, err := issuer.Issue(alicePayload(), domain.TokenKindRefresh)
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, issued.ExpiresAt.Sub(issued.IssuedAt))
}

func TestAccessTokenExpiresAfterLifetime(t *testing.T) {
	clock := newFakeClock()
	lifetime := 15 * time.Minute
	issuer := NewTokenIssuer("secret", lifetime, time.Hour, WithClock(clock.Now))

	raw, _, err := issuer.Issue(alicePayload(), domain.TokenKindAccess)
	require.NoError(t, err)

	clock.Advance(lifetime - time.Second)
	_, err = issuer.Verify(raw)
	require.NoError(t, err)

	clock.Advance(2 * time.Second)
	_, err = issuer.Verify(raw)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestAccessTokenValidAtExactExpiry(t *testing.T) {
	clock := newFakeClock()
	lifetime := 15 * time.Minute
	issuer := NewTokenIssuer("secret", lifetime, time.Hour, WithClock(clock.Now))

	raw, issued, err := issuer.Issue(alicePayload(), domain.TokenKindAccess)
	require.NoError(t, err)

	clock.Advance(lifetime)
	require.True(t, clock.Now().Equal(issued.ExpiresAt))
	_, err = issuer.Verify(raw)
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = issuer.Verify(raw)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	clock := newFakeClock()
	ours := NewTokenIssuer("secret", 0, 0, WithClock(clock.Now))
	theirs := NewTokenIssuer("other-secret", 0, 0, WithClock(clock.Now))

	raw, _, err := theirs.Issue(alicePayload(), domain.TokenKindAccess)
	require.NoError(t, err)

	_, err = ours.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	issuer := NewTokenIssuer("secret", 0, 0)
	raw, _, err := issuer.Issue(alicePayload(), domain.TokenKindAccess)
	require.NoError(t, err)

	other, _, err := issuer.Issue(domain.TokenPayload{Subject: "acc-2", Role: domain.RoleSuperAdmin}, domain.TokenKindAccess)
	require.NoError(t, err)

	parts := strings.Split(raw, ".")
	otherParts := strings.Split(other, ".")
	forged := parts[0] + "." + otherParts[1] + "." + parts[2]

	_, err = issuer.Verify(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyMalformed(t *testing.T) {
	issuer := NewTokenIssuer("secret", 0, 0)

	for _, raw := range []string{"", "   ", "not-a-jwt", "a.b", "a.b.c"} {
		_, err := issuer.Verify(raw)
		assert.ErrorIs(t, err, ErrMalformedToken, "token %q", raw)
	}
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	a := NewTokenIssuer("secret", 0, 0, WithIssuer("a"))
	b := NewTokenIssuer("secret", 0, 0, WithIssuer("b"))

	raw, _, err := a.Issue(alicePayload(), domain.TokenKindAccess)
	require.NoError(t, err)

	_, err = b.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyKind(t *testing.T) {
	issuer := NewTokenIssuer("secret", 0, 0)
	refresh, _, err := issuer.Issue(alicePayload(), domain.TokenKindRefresh)
	require.NoError(t, err)

	_, err = issuer.VerifyKind(refresh, domain.TokenKindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	payload, err := issuer.VerifyKind(refresh, domain.TokenKindRefresh)
	require.NoError(t, err)
	assert.Equal(t, domain.TokenKindRefresh, payload.Kind)
}

func TestIssueRequiresSubject(t *testing.T) {
	issuer := NewTokenIssuer("secret", 0, 0)

	_, _, err := issuer.Issue(domain.TokenPayload{Email: "x@example.com"}, domain.TokenKindAccess)
	assert.Error(t, err)
}
