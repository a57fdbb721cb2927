package config

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Minimum secret sizes, checked by Validate.
const (
	minJWTSecretLen = 64
	aesKeyLen       = 32
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`
	AppName  string `env:"APP_NAME,  default=Workshop"`

	// FrontendURL is linked from credential notices as the login page.
	FrontendURL string `env:"FRONTEND_URL, default=http://localhost:3000"`

	Auth      AuthConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Notify    NotifyConfig
	Bootstrap BootstrapConfig
}

type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET, required"`
	JWTTTL    time.Duration `env:"JWT_TTL, default=24h"`
	// AESKey is the base64 encoding of the 32-byte field encryption key.
	AESKey string `env:"AES_SECRET_KEY, required"`

	CookieName   string        `env:"AUTH_COOKIE_NAME,    default=auth_token"`
	CookieMaxAge time.Duration `env:"AUTH_COOKIE_MAX_AGE, default=24h"`

	MaxFailures   int           `env:"LOGIN_MAX_FAILURES,   default=10"`
	FailureWindow time.Duration `env:"LOGIN_FAILURE_WINDOW, default=15m"`

	// LoginRate is the sustained login requests per second allowed per IP.
	LoginRate  float64 `env:"LOGIN_RATE_LIMIT, default=5"`
	LoginBurst int     `env:"LOGIN_RATE_BURST, default=10"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=workshop"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type NotifyConfig struct {
	Workers int `env:"NOTIFY_WORKERS, default=2"`
}

// BootstrapConfig seeds the first ADMIN account on start-up when both
// fields are set and the email is not taken yet.
type BootstrapConfig struct {
	AdminEmail    string `env:"BOOTSTRAP_ADMIN_EMAIL"`
	AdminPassword string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
}

// IsProduction reports whether ENV is set to production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate rejects secrets that would make the token or field encryption
// unsafe. Callers abort start-up on error.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Auth.JWTSecret) < minJWTSecretLen {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", minJWTSecretLen))
	}
	key, err := base64.StdEncoding.DecodeString(c.Auth.AESKey)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("AES_SECRET_KEY is not valid base64: %w", err))
	case len(key) != aesKeyLen:
		errs = append(errs, fmt.Errorf("AES_SECRET_KEY must decode to %d bytes, got %d", aesKeyLen, len(key)))
	}
	if c.Auth.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration from l.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	return &cfg, nil
}
