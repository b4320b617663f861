// Package config loads runtime configuration from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Store drivers.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

// minProductionSecretLen is the shortest JWT secret accepted in production (256 bits).
const minProductionSecretLen = 32

// Config holds runtime configuration for the auth service.
type Config struct {
	Env       string `env:"ENV,default=development"`
	Addr      string `env:"ADDR,default=:5000"`
	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=json"`

	StoreDriver   string `env:"STORE_DRIVER,default=sqlite"`
	DatabaseDSN   string `env:"DATABASE_DSN,default=auth.db"`
	MongoURI      string `env:"MONGO_URI"`
	MongoDatabase string `env:"MONGO_DATABASE,default=auth"`
	RunMigrations bool   `env:"RUN_MIGRATIONS,default=true"`

	DBConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT,default=30s"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	UserCacheTTL  time.Duration `env:"USER_CACHE_TTL,default=5m"`

	JWTSecret          string        `env:"JWT_SECRET,required"`
	SessionTTL         time.Duration `env:"SESSION_TTL,default=24h"`
	ResetTokenTTL      time.Duration `env:"RESET_TOKEN_TTL,default=10m"`
	BcryptCost         int           `env:"BCRYPT_COST,default=12"`
	MaxSessionsPerUser int           `env:"MAX_SESSIONS_PER_USER,default=5"`

	CookieSecure       bool     `env:"COOKIE_SECURE"`
	CookieDomain       string   `env:"COOKIE_DOMAIN"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS"`
	TrustedProxies     []string `env:"TRUSTED_PROXIES"`
	StaticDir          string   `env:"STATIC_DIR,default=web"`
	AppBaseURL         string   `env:"APP_BASE_URL"`
	MaxBodyBytes       int64    `env:"MAX_BODY_BYTES,default=10240"`

	SESRegion    string        `env:"SES_REGION,default=us-east-1"`
	SESFromEmail string        `env:"SES_FROM_EMAIL"`
	SESFromName  string        `env:"SES_FROM_NAME"`
	EmailTimeout time.Duration `env:"EMAIL_TIMEOUT,default=10s"`
}

// Load reads a .env file if present and returns a validated Config from the process environment.
func Load(ctx context.Context) (Config, error) {
	// .envが無い場合は無視する
	_ = godotenv.Load()
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith returns a validated Config read through l.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return Config{}, err
	}
	cfg.Env = strings.ToLower(cfg.Env)
	cfg.StoreDriver = strings.ToLower(cfg.StoreDriver)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c Config) Validate() error {
	var errs []error

	switch c.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		errs = append(errs, fmt.Errorf("ENV must be one of development, production, test; got %q", c.Env))
	}

	switch c.StoreDriver {
	case StoreSQLite, StorePostgres:
		if c.DatabaseDSN == "" {
			errs = append(errs, errors.New("DATABASE_DSN is required for SQL stores"))
		}
	case StoreMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required when STORE_DRIVER=mongo"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be one of sqlite, postgres, mongo; got %q", c.StoreDriver))
	}

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}
	if c.IsProduction() && len(c.JWTSecret) < minProductionSecretLen {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes in production", minProductionSecretLen))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.ResetTokenTTL <= 0 {
		errs = append(errs, errors.New("RESET_TOKEN_TTL must be positive"))
	}
	if c.MaxSessionsPerUser < 0 {
		errs = append(errs, errors.New("MAX_SESSIONS_PER_USER must not be negative"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether internal error details must be hidden from clients.
func (c Config) IsProduction() bool { return c.Env == EnvProduction }

// EmailEnabled reports whether SES delivery is configured.
func (c Config) EmailEnabled() bool { return c.SESFromEmail != "" }
