package ratelimit

import (
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/kaie-api/pkg/util/errorutil"
)

// Middleware throttles requests per client IP under scope.
func Middleware(limiter Limiter, scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		decision, err := limiter.Allow(c.UserContext(), scope+":"+c.IP())
		if err != nil {
			return apperrors.NewInternalError(err)
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		if decision.Allowed {
			return c.Next()
		}

		retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
		return apperrors.NewRateLimited("too many requests", map[string]any{"retry_after_seconds": retryAfter})
	}
}
