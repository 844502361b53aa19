package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/kaie-api/internal/domain"
	apperrors "github.com/spec-kit/kaie-api/pkg/util/errorutil"
)

// Access is the per-route authorization descriptor. The zero value is a
// protected route open to any authenticated identity.
type Access struct {
	Public bool
	Roles  []domain.Role
}

// Public marks a route as exempt from authentication.
func Public() Access {
	return Access{Public: true}
}

// Authenticated requires a valid access token and nothing more.
func Authenticated() Access {
	return Access{}
}

// RequireRoles requires a valid access token whose role is one of roles.
func RequireRoles(roles ...domain.Role) Access {
	return Access{Roles: roles}
}

// AccessVerifier verifies raw access tokens.
type AccessVerifier interface {
	VerifyKind(raw string, kind domain.TokenKind) (domain.TokenPayload, error)
}

// Pipeline is the two-stage request gate: authentication then role check.
type Pipeline struct {
	tokens AccessVerifier
}

// NewPipeline constructs the pipeline around a token verifier.
func NewPipeline(tokens AccessVerifier) *Pipeline {
	return &Pipeline{tokens: tokens}
}

// Authenticate resolves the identity behind an Authorization header value.
// Every failure is reported as the same Unauthenticated error kind.
func (p *Pipeline) Authenticate(authorization string) (domain.Identity, error) {
	token, err := extractBearerToken(authorization)
	if err != nil {
		return domain.Identity{}, apperrors.NewUnauthenticated(err.Error())
	}
	payload, err := p.tokens.VerifyKind(token, domain.TokenKindAccess)
	if err != nil {
		if errors.Is(err, ErrExpiredToken) {
			return domain.Identity{}, apperrors.NewUnauthenticated("token expired")
		}
		return domain.Identity{}, apperrors.NewUnauthenticated("invalid token")
	}
	return domain.Identity{ID: payload.Subject, Email: payload.Email, Role: payload.Role}, nil
}

// Authorize reports whether identity satisfies the required roles. An empty
// requirement admits any identity.
func (p *Pipeline) Authorize(identity domain.Identity, required []domain.Role) bool {
	if len(required) == 0 {
		return true
	}
	for _, role := range required {
		if identity.Role == role {
			return true
		}
	}
	return false
}

// Guard returns the handlers enforcing access for one route.
func (p *Pipeline) Guard(access Access) []fiber.Handler {
	if access.Public {
		return nil
	}
	handlers := []fiber.Handler{p.Handle}
	if len(access.Roles) > 0 {
		handlers = append(handlers, p.RequireRole(access.Roles...))
	}
	return handlers
}

// Handle is the authentication stage.
func (p *Pipeline) Handle(c *fiber.Ctx) error {
	identity, err := p.Authenticate(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return err
	}
	SetIdentity(c, identity)
	return c.Next()
}

// RequireRole is the authorization stage. It must run after Handle.
func (p *Pipeline) RequireRole(roles ...domain.Role) fiber.Handler {
	required := append([]domain.Role(nil), roles...)
	names := make([]string, len(required))
	for i, role := range required {
		names[i] = string(role)
	}

	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromCtx(c)
		if !ok {
			return apperrors.ErrUnauthenticated
		}
		if !p.Authorize(identity, required) {
			return apperrors.NewForbidden(
				fmt.Sprintf("insufficient permissions. required roles: %s", strings.Join(names, ", ")),
				map[string]any{"required_roles": names},
			)
		}
		return c.Next()
	}
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
