// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"membership-api/internal/token"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"production"`
	Port        string `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	TokenKey    string `env:"TOKEN_KEY"`

	SentryDSN     string   `env:"SENTRY_DSN"`
	CloudinaryURL string   `env:"CLOUDINARY_URL"`
	CORSOrigins   []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:4200,https://localhost:4200"`

	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	DBConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"10m"`

	LoginRateLimitMax    int           `env:"LOGIN_RATE_LIMIT_MAX" envDefault:"10"`
	LoginRateLimitWindow time.Duration `env:"LOGIN_RATE_LIMIT_WINDOW" envDefault:"1m"`

	// TrustProxyHeaders keys the login limiter on X-Forwarded-For/X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" envDefault:"false"`

	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"false"`

	RunMigrations   bool          `env:"RUN_MIGRATIONS" envDefault:"true"`
	SeedOnStartup   bool          `env:"SEED_ON_STARTUP" envDefault:"true"`
	SeedFile        string        `env:"SEED_FILE"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads an optional .env file when loadDotEnv is set, then parses the
// environment.
func Load(loadDotEnv bool) (Config, error) {
	if loadDotEnv {
		_ = godotenv.Load()
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.AppEnv = strings.TrimSpace(cfg.AppEnv)
	cfg.CORSOrigins = trimAll(cfg.CORSOrigins)

	return cfg, nil
}

// Validate rejects configurations the service must not start with.
func (c Config) Validate() error {
	if err := token.ValidateKey(c.TokenKey); err != nil {
		return fmt.Errorf("TOKEN_KEY: %w", err)
	}
	if c.LoginRateLimitMax <= 0 {
		return fmt.Errorf("LOGIN_RATE_LIMIT_MAX must be positive")
	}
	if c.LoginRateLimitWindow <= 0 {
		return fmt.Errorf("LOGIN_RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

// IsDevelopment reports whether detailed fault payloads may be returned.
func (c Config) IsDevelopment() bool {
	return IsDevelopment(c.AppEnv)
}

func IsDevelopment(appEnv string) bool {
	switch strings.ToLower(strings.TrimSpace(appEnv)) {
	case "development", "dev", "local":
		return true
	default:
		return false
	}
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
