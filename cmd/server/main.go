// Command server runs the identity service HTTP API.
//
// @title                       Identity Service API
// @version                     1.0
// @description                 Registration, login and role-based access for the todo application.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/todo-app/identity-service/internal/api"
	"github.com/todo-app/identity-service/internal/api/handler"
	"github.com/todo-app/identity-service/internal/core/ports"
	"github.com/todo-app/identity-service/internal/core/service"
	"github.com/todo-app/identity-service/internal/infrastructure/config"
	"github.com/todo-app/identity-service/internal/infrastructure/db/mongo"
	"github.com/todo-app/identity-service/internal/infrastructure/db/postgres"
	"github.com/todo-app/identity-service/internal/infrastructure/db/redis"
	"github.com/todo-app/identity-service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// userStore is a user repository the readiness probe can ping.
type userStore interface {
	ports.UserRepository
	Ping(ctx context.Context) error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := logger.New(logger.Options{})
		boot.Fatal().Err(err).Msg("load config")
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	store, closeStore, err := openUserStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("open user store")
	}
	defer closeStore()

	ready := map[string]handler.Pinger{"user_store": store}

	hasher := service.NewBcryptHasher(cfg.Auth.BcryptCost)
	tokens, err := service.NewTokenService(cfg.Auth.JWTSecret,
		service.WithTTL(cfg.Auth.TokenTTL),
		service.WithLogger(logger.Component("token")),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("token service")
	}

	authService := service.NewAuthService(store, hasher, tokens, logger.Component("auth"))

	if cfg.Redis.Addr != "" {
		rdb, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Error().Err(err).Str("addr", cfg.Redis.Addr).Msg("connect redis, login throttling disabled")
		} else {
			defer rdb.Close()
			authService.WithThrottle(redis.NewLoginThrottle(rdb, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginAttemptsTTL))
			ready["redis"] = redisPinger(rdb)
		}
	} else {
		log.Warn().Msg("REDIS_ADDR empty, login throttling disabled")
	}

	authenticator := service.NewAuthenticator(tokens, cfg.Auth.CookieName, logger.Component("authenticator"))

	e := api.NewRouter(api.Deps{
		Log:           logger.Component("http"),
		AuthService:   authService,
		Authenticator: authenticator,
		Cookie: handler.CookieConfig{
			Name:   authenticator.CookieName(),
			Secure: cfg.Auth.CookieSecure,
		},
		Ready: ready,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("http server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
}

func openUserStore(ctx context.Context, cfg *config.Config) (userStore, func(), error) {
	log := logger.Component("store")

	switch cfg.StoreDriver {
	case "postgres":
		pool, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.Postgres.DSN})
		if err != nil {
			return nil, nil, err
		}
		repo := postgres.NewUserRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info().Msg("postgres user store ready")
		return repo, pool.Close, nil

	default:
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, nil, err
		}
		repo := mongo.NewUserRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongo user store ready")
		return repo, func() { closeMongo(client.Disconnect, log) }, nil
	}
}

func closeMongo(disconnect func(context.Context) error, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := disconnect(ctx); err != nil {
		log.Error().Err(err).Msg("mongo disconnect")
	}
}

func redisPinger(rdb *goredis.Client) handler.PingFunc {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}
