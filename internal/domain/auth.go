package domain

import "time"

// TokenKind differentiates access and refresh tokens.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// TokenPayload is the set of claims embedded in an issued token.
type TokenPayload struct {
	ID        string
	Subject   string
	Email     string
	Role      Role
	Kind      TokenKind
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Identity is the authenticated caller attached to a request.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// TokenPair is returned by refresh and embedded in SessionOutcome.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// SessionOutcome is returned to clients after login or registration.
type SessionOutcome struct {
	TokenPair
	User PublicAccount `json:"user"`
}
