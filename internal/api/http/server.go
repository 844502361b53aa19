package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/kaie-api/internal/observability"
)

// ServerConfig bundles everything NewServer wires together.
type ServerConfig struct {
	AppName     string
	Logger      *zap.Logger
	Metrics     *observability.Metrics
	Middlewares MiddlewareConfig
	Routes      RouteConfig
}

// NewServer builds the fiber app with global middlewares and routes.
func NewServer(cfg ServerConfig) *fiber.App {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler(logger, cfg.Metrics),
	})
	RegisterMiddlewares(app, logger, cfg.Metrics, cfg.Middlewares)

	routes := cfg.Routes
	if routes.Metrics == nil && cfg.Metrics != nil {
		routes.Metrics = cfg.Metrics.Handler()
	}
	RegisterRoutes(app, routes)
	return app
}
