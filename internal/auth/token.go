package auth

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/kaie-api/internal/domain"
	"github.com/spec-kit/kaie-api/internal/ids"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

var (
	// ErrInvalidToken means the signature, issuer or claims did not check out.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken means the token was valid but its lifetime has passed.
	ErrExpiredToken = errors.New("token expired")
	// ErrMalformedToken means the token could not be parsed at all.
	ErrMalformedToken = errors.New("malformed token")
)

// Claims describes the JWT payload.
type Claims struct {
	Email string           `json:"email"`
	Role  domain.Role      `json:"role"`
	Kind  domain.TokenKind `json:"typ"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 access and refresh tokens.
type TokenIssuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// TokenOption configures a TokenIssuer.
type TokenOption func(*TokenIssuer)

// WithIssuer sets the iss claim written and required on every token.
func WithIssuer(issuer string) TokenOption {
	return func(t *TokenIssuer) {
		t.issuer = strings.TrimSpace(issuer)
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) TokenOption {
	return func(t *TokenIssuer) {
		if fn != nil {
			t.now = fn
		}
	}
}

// NewTokenIssuer builds an issuer. Non-positive lifetimes fall back to
// 15 minutes for access and 7 days for refresh tokens.
func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration, opts ...TokenOption) *TokenIssuer {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	t := &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TTL returns the configured lifetime for kind.
func (t *TokenIssuer) TTL(kind domain.TokenKind) time.Duration {
	if kind == domain.TokenKindRefresh {
		return t.refreshTTL
	}
	return t.accessTTL
}

// Issue signs a token of the given kind for payload's subject, email and role.
// The returned payload has its id and timestamps filled in.
func (t *TokenIssuer) Issue(payload domain.TokenPayload, kind domain.TokenKind) (string, domain.TokenPayload, error) {
	if strings.TrimSpace(payload.Subject) == "" {
		return "", domain.TokenPayload{}, errors.New("token subject is required")
	}
	now := t.now().UTC()
	payload.Kind = kind
	payload.ID = ids.NewAt(now)
	payload.IssuedAt = now.Truncate(time.Second)
	payload.ExpiresAt = payload.IssuedAt.Add(t.TTL(kind))

	claims := &Claims{
		Email: payload.Email,
		Role:  payload.Role,
		Kind:  kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        payload.ID,
			Issuer:    t.issuer,
			Subject:   payload.Subject,
			IssuedAt:  jwt.NewNumericDate(payload.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(payload.ExpiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", domain.TokenPayload{}, err
	}
	return signed, payload, nil
}

// Verify checks signature and lifetime and returns the embedded payload.
// It fails with ErrMalformedToken, ErrExpiredToken or ErrInvalidToken.
func (t *TokenIssuer) Verify(raw string) (domain.TokenPayload, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.TokenPayload{}, ErrMalformedToken
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		// a token is still valid at exactly its expiry instant
		jwt.WithLeeway(time.Nanosecond),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if t.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(t.issuer))
	}

	parsed, err := jwt.NewParser(parserOpts...).ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return domain.TokenPayload{}, classify(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" || claims.IssuedAt == nil {
		return domain.TokenPayload{}, ErrInvalidToken
	}
	if claims.Kind != domain.TokenKindAccess && claims.Kind != domain.TokenKindRefresh {
		return domain.TokenPayload{}, ErrInvalidToken
	}

	return domain.TokenPayload{
		ID:        claims.ID,
		Subject:   claims.Subject,
		Email:     claims.Email,
		Role:      claims.Role,
		Kind:      claims.Kind,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// VerifyKind verifies raw and additionally requires it to be of kind.
func (t *TokenIssuer) VerifyKind(raw string, kind domain.TokenKind) (domain.TokenPayload, error) {
	payload, err := t.Verify(raw)
	if err != nil {
		return domain.TokenPayload{}, err
	}
	if payload.Kind != kind {
		return domain.TokenPayload{}, ErrInvalidToken
	}
	return payload, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformedToken
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpiredToken
	default:
		return ErrInvalidToken
	}
}
