package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/kaie-api/internal/api/http"
	natsapi "github.com/spec-kit/kaie-api/internal/api/nats"
	"github.com/spec-kit/kaie-api/internal/api/http/handlers"
	"github.com/spec-kit/kaie-api/internal/auth"
	"github.com/spec-kit/kaie-api/internal/config"
	"github.com/spec-kit/kaie-api/internal/events"
	"github.com/spec-kit/kaie-api/internal/observability"
	"github.com/spec-kit/kaie-api/internal/persistence"
	"github.com/spec-kit/kaie-api/internal/ratelimit"
	"github.com/spec-kit/kaie-api/internal/repository"
	"github.com/spec-kit/kaie-api/internal/service"
	"github.com/spec-kit/kaie-api/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dependencies := map[string]handlers.Pinger{}

	var accounts repository.AccountRepository
	if cfg.Postgres.DSN == "" {
		logger.Warn("POSTGRES_DSN not set; using in-memory account store")
		accounts = repository.NewMemoryAccountRepository()
	} else {
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		accounts = repository.NewAccountRepository(pg.PoolHandle())
		dependencies["postgres"] = pg
	}

	memoryLimiter := ratelimit.NewMemoryLimiter(cfg.Throttle.Limit, cfg.Throttle.Window())
	var limiter ratelimit.Limiter = memoryLimiter
	if cfg.Redis.Addr != "" {
		redis := persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
		limiter = ratelimit.NewFallback(
			ratelimit.NewRedisLimiter(redis.Client, "throttle", cfg.Throttle.Limit, cfg.Throttle.Window()),
			memoryLimiter,
			logger,
		)
		dependencies["redis"] = redis
	}

	metrics := observability.NewMetrics("kaie")
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger, metrics))

	hashPool := worker.NewPool(cfg.Auth.HashWorkers)
	defer hashPool.Close()

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL,
		auth.WithIssuer(cfg.Auth.JWTIssuer))

	if cfg.NATS.URL != "" {
		conn, err := natsapi.Connect(cfg.NATS, cfg.App.Name, logger)
		if err != nil {
			logger.Fatal("failed to connect nats", zap.Error(err))
		}
		defer conn.Drain() //nolint:errcheck

		natsapi.NewEventForwarder(conn, cfg.NATS.EventsSubject).Register(dispatcher)
		if _, err := natsapi.NewVerifyResponder(tokens).Subscribe(conn, cfg.NATS.VerifySubject, cfg.NATS.Queue); err != nil {
			logger.Fatal("failed to subscribe token verification", zap.Error(err))
		}
		logger.Info("nats bridge enabled", zap.String("verify_subject", cfg.NATS.VerifySubject))
	}
	authService := service.NewAuthService(service.AuthDependencies{
		Accounts: accounts,
		Tokens:   tokens,
		Hasher:   auth.NewHasher(cfg.Auth.BcryptCost, hashPool),
		Events:   dispatcher,
		Logger:   logger,
	})
	accountService := service.NewAccountService(accounts, authService, logger)

	app := httptransport.NewServer(httptransport.ServerConfig{
		AppName: cfg.App.Name,
		Logger:  logger,
		Metrics: metrics,
		Middlewares: httptransport.MiddlewareConfig{
			Timeout: cfg.App.RequestTimeout(),
			CORS:    cfg.CORS,
		},
		Routes: httptransport.RouteConfig{
			Prefix:   cfg.App.APIPrefix,
			Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies),
			Auth:     handlers.NewAuthHandler(authService),
			Users:    handlers.NewUsersHandler(accountService),
			Pipeline: auth.NewPipeline(tokens),
			Throttle: func(scope string) fiber.Handler {
				return ratelimit.Middleware(limiter, scope)
			},
		},
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
