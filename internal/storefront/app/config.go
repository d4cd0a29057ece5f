package app

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full runtime configuration, loaded from the environment with
// an optional .env file for local development.
type Config struct {
	Env       string `env:"ENV" envDefault:"dev"`
	Port      int    `env:"PORT" envDefault:"8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	Issuer   string `env:"AUTH_ISSUER" envDefault:"enterprise-ec-demo"`
	Audience string `env:"AUTH_AUDIENCE" envDefault:"enterprise-ec-demo"`

	// JWTSecret and JWTRefreshSecret sign the access and refresh tokens
	// respectively. They must differ, and production refuses to start on
	// missing or placeholder values.
	JWTSecret        string `env:"JWT_SECRET"`
	JWTRefreshSecret string `env:"JWT_REFRESH_SECRET"`

	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`

	DatabaseFile string `env:"DATABASE_FILE" envDefault:"storefront.db"`

	// RedisAddr selects the blacklist backend: empty means the in-process
	// one, anything else the shared Redis one. Multi-instance deployments
	// need Redis for revocation to hold across instances.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	SeedDemoData         bool          `env:"SEED_DEMO_DATA" envDefault:"true"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`
}

// Placeholder values that ship in documentation and must never sign real
// tokens.
var placeholderSecrets = map[string]bool{
	"your-secret-key":         true,
	"your-refresh-secret-key": true,
	"changeme":                true,
}

const (
	devJWTSecret        = "dev-only-access-secret-not-for-production"
	devJWTRefreshSecret = "dev-only-refresh-secret-not-for-production"
)

// LoadConfig reads .env (if present) and the process environment, then
// validates the result.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.IsProduction() {
		switch {
		case c.JWTSecret == "" || placeholderSecrets[c.JWTSecret]:
			return fmt.Errorf("JWT_SECRET must be set to a real value in production")
		case c.JWTRefreshSecret == "" || placeholderSecrets[c.JWTRefreshSecret]:
			return fmt.Errorf("JWT_REFRESH_SECRET must be set to a real value in production")
		}
	} else {
		if c.JWTSecret == "" {
			c.JWTSecret = devJWTSecret
		}
		if c.JWTRefreshSecret == "" {
			c.JWTRefreshSecret = devJWTRefreshSecret
		}
	}

	if c.JWTSecret == c.JWTRefreshSecret {
		return fmt.Errorf("JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}
	if c.AccessTokenTTL >= c.RefreshTokenTTL {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be shorter than REFRESH_TOKEN_TTL")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}
