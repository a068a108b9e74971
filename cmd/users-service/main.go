// Command users-service serves the user account API.
//
//	@title						Users Service API
//	@version					1.0
//	@description				User accounts with JWT authentication and role-based access.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
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
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/itroad/users-service/internal/api"
	"github.com/itroad/users-service/internal/core/ports"
	"github.com/itroad/users-service/internal/core/service"
	"github.com/itroad/users-service/internal/infrastructure/db/memory"
	"github.com/itroad/users-service/internal/infrastructure/db/mongo"
	"github.com/itroad/users-service/internal/infrastructure/db/redis"
	"github.com/itroad/users-service/internal/pkg/config"
	"github.com/itroad/users-service/pkg/logger"
)

const serviceName = "users-service"

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: serviceName,
		Env:     cfg.Env,
	})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.UsesInsecureSecret() {
		log.Warn().Msg("JWT_SECRET is not set; using the insecure development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.For("bootstrap")

	var (
		repo ports.UserRepository
		db   *mongodriver.Database
	)

	switch cfg.StoreDriver {
	case "memory":
		log.Warn().Msg("using the in-memory user store; data is lost on restart")
		repo = memory.NewUserRepository()
	default:
		client, database, err := mongo.Connect(ctx, mongo.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  serviceName,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := mongo.Disconnect(client, 5*time.Second); err != nil {
				log.Warn().Err(err).Msg("mongodb disconnect failed")
			}
		}()

		users := mongo.NewUserRepository(database)
		if err := users.EnsureIndexes(ctx); err != nil {
			return err
		}
		repo, db = users, database
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")
	}

	var (
		cache ports.IdentityCache
		rdb   *goredis.Client
	)
	if cfg.Redis.Addr != "" && cfg.Redis.TTL > 0 {
		client, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer client.Close()
		cache, rdb = redis.NewIdentityCache(client, cfg.Redis.TTL), client
		log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.TTL).Msg("identity cache enabled")
	}

	authLog := logger.For("auth")
	verifier := service.NewTokenVerifier(cfg.JWT.Secret, cfg.JWT.TokenLifetime(), authLog)
	e := api.NewRouter(api.Dependencies{
		Users:         service.NewUserService(repo, cache, logger.For("users")),
		Authenticator: service.NewAuthenticator(verifier, repo, cache, authLog),
		Mongo:         db,
		Redis:         rdb,
		CORS:          cfg.CORS,
		Logger:        logger.For("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
