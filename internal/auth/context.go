package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/kaie-api/internal/domain"
)

const identityLocalsKey = "auth_identity"

type identityContextKey struct{}

// ContextWithIdentity attaches the authenticated identity to ctx.
func ContextWithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext extracts the authenticated identity from ctx.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	if ctx == nil {
		return domain.Identity{}, false
	}
	identity, ok := ctx.Value(identityContextKey{}).(domain.Identity)
	return identity, ok && identity.ID != ""
}

// SetIdentity stores identity on the request, both in fiber locals and in the
// user context handed to services.
func SetIdentity(c *fiber.Ctx, identity domain.Identity) {
	c.Locals(identityLocalsKey, identity)
	c.SetUserContext(ContextWithIdentity(c.UserContext(), identity))
}

// IdentityFromCtx retrieves the identity attached by the authentication stage.
func IdentityFromCtx(c *fiber.Ctx) (domain.Identity, bool) {
	identity, ok := c.Locals(identityLocalsKey).(domain.Identity)
	return identity, ok && identity.ID != ""
}
