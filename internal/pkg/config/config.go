package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// InsecureJWTSecret is the development fallback signing secret. Validate
// refuses it in production.
const InsecureJWTSecret = "dev-only-insecure-secret-change-me-0123456789abcdef"

type Config struct {
	Port      string `env:"PORT,         default=8080"`
	Env       string `env:"ENV,          default=development"`
	LogLevel  string `env:"LOG_LEVEL,    default=info"`
	LogPretty bool   `env:"LOG_PRETTY,   default=false"`

	// StoreDriver selects the user store: "mongo" or "memory".
	StoreDriver string `env:"STORE_DRIVER, default=mongo"`

	JWT   JWTConfig
	Mongo MongoConfig
	Redis RedisConfig
	CORS  CORSConfig
}

type JWTConfig struct {
	Secret string `env:"JWT_SECRET, default=dev-only-insecure-secret-change-me-0123456789abcdef"`
	// ExpirationSeconds bounds tokens that carry iat but no exp.
	ExpirationSeconds int64 `env:"JWT_EXPIRATION, default=86400"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=users_service"`
}

type RedisConfig struct {
	// Addr empty disables the identity cache.
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,           default=0"`
	TTL      time.Duration `env:"IDENTITY_CACHE_TTL, default=30s"`
}

type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS,   default=https://itroad-frontend.vercel.app,https://itroad-frontend-git-main.vercel.app"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS,   default=GET,POST,PUT,DELETE,OPTIONS,HEAD"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS,   default=*"`
	ExposedHeaders   []string `env:"CORS_EXPOSED_HEADERS,   default=Authorization,Content-Type"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS, default=true"`
	MaxAge           int      `env:"CORS_MAX_AGE,           default=3600"`
}

// TokenLifetime returns the configured fallback lifetime of tokens.
func (c JWTConfig) TokenLifetime() time.Duration {
	return time.Duration(c.ExpirationSeconds) * time.Second
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// UsesInsecureSecret reports whether the development signing secret is active.
func (c *Config) UsesInsecureSecret() bool {
	return c.JWT.Secret == InsecureJWTSecret
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("config: JWT_SECRET must not be empty")
	}
	if c.IsProduction() && c.UsesInsecureSecret() {
		return errors.New("config: JWT_SECRET must be set in production")
	}
	if c.JWT.ExpirationSeconds <= 0 {
		return fmt.Errorf("config: JWT_EXPIRATION must be positive, got %d", c.JWT.ExpirationSeconds)
	}
	switch c.StoreDriver {
	case "mongo", "memory":
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	return LoadWith(envconfig.OsLookuper())
}

// LoadWith reads configuration from l. Panics on malformed values.
func LoadWith(l envconfig.Lookuper) *Config {
	var cfg Config
	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
