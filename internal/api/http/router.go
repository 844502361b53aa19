package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/kaie-api/internal/api/http/handlers"
	"github.com/spec-kit/kaie-api/internal/auth"
	"github.com/spec-kit/kaie-api/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Prefix   string
	Health   *handlers.HealthHandler
	Auth     *handlers.AuthHandler
	Users    *handlers.UsersHandler
	Pipeline *auth.Pipeline
	// Throttle guards the credential endpoints; nil disables throttling.
	Throttle func(scope string) fiber.Handler
	Metrics  fiber.Handler
}

// Route is one endpoint together with its access descriptor. Routes are
// protected unless Access says otherwise.
type Route struct {
	Method   string
	Path     string
	Access   auth.Access
	Handlers []fiber.Handler
}

var adminRoles = []domain.Role{domain.RoleAdmin, domain.RoleSuperAdmin}

// Routes lists every API endpoint under the prefix.
func Routes(cfg RouteConfig) []Route {
	return []Route{
		{fiber.MethodPost, "/auth/register", auth.Public(), chain(cfg.throttle("register"), cfg.Auth.Register)},
		{fiber.MethodPost, "/auth/login", auth.Public(), chain(cfg.throttle("login"), cfg.Auth.Login)},
		{fiber.MethodPost, "/auth/refresh", auth.Public(), chain(cfg.Auth.Refresh)},
		{fiber.MethodPost, "/auth/logout", auth.Authenticated(), chain(cfg.Auth.Logout)},

		{fiber.MethodGet, "/users/profile", auth.Authenticated(), chain(cfg.Users.Profile)},
		{fiber.MethodPut, "/users/profile", auth.Authenticated(), chain(cfg.Users.UpdateProfile)},
		{fiber.MethodGet, "/users", auth.RequireRoles(adminRoles...), chain(cfg.Users.List)},
		{fiber.MethodGet, "/users/:id", auth.RequireRoles(adminRoles...), chain(cfg.Users.Get)},
		{fiber.MethodPut, "/users/:id", auth.RequireRoles(adminRoles...), chain(cfg.Users.Update)},
		{fiber.MethodDelete, "/users/:id", auth.RequireRoles(adminRoles...), chain(cfg.Users.Delete)},
	}
}

// RegisterRoutes wires HTTP routes. Every API route passes through the
// pipeline guard for its access descriptor.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}

	api := app.Group(cfg.Prefix)
	for _, route := range Routes(cfg) {
		stack := append(cfg.Pipeline.Guard(route.Access), route.Handlers...)
		api.Add(route.Method, route.Path, stack...)
	}
}

func (cfg RouteConfig) throttle(scope string) fiber.Handler {
	if cfg.Throttle == nil {
		return nil
	}
	return cfg.Throttle(scope)
}

func chain(handlers ...fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}
