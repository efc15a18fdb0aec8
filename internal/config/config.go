package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const minSecretLen = 32

type Config struct {
	Port             string        `mapstructure:"PORT"`
	Env              string        `mapstructure:"ENV"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	Storage          string        `mapstructure:"STORAGE"`
	DatabaseURL      string        `mapstructure:"DATABASE_URL"`
	DBMaxConns       int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns       int32         `mapstructure:"DB_MIN_CONNS"`
	RedisURL         string        `mapstructure:"REDIS_URL"`
	JWTSecret        string        `mapstructure:"JWT_SECRET"`
	JWTIssuer        string        `mapstructure:"JWT_ISSUER"`
	AccessTokenTTL   time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`
	AuthMode         string        `mapstructure:"AUTH_MODE"`
	AuthServiceURL   string        `mapstructure:"AUTH_SERVICE_URL"`
	AllowAdminSignup bool          `mapstructure:"ALLOW_ADMIN_SIGNUP"`
	BcryptCost       int           `mapstructure:"BCRYPT_COST"`
	CORSOrigins      []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS     float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst   int           `mapstructure:"RATE_LIMIT_BURST"`
	MigrationsDir    string        `mapstructure:"MIGRATIONS_DIR"`
	TLSEnabled       bool          `mapstructure:"TLS_ENABLED"`
	TLSCertFile      string        `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile       string        `mapstructure:"TLS_KEY_FILE"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL", "STORAGE",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "REDIS_URL",
	"JWT_SECRET", "JWT_ISSUER", "ACCESS_TOKEN_TTL",
	"AUTH_MODE", "AUTH_SERVICE_URL", "ALLOW_ADMIN_SIGNUP", "BCRYPT_COST",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "MIGRATIONS_DIR",
	"TLS_ENABLED", "TLS_CERT_FILE", "TLS_KEY_FILE",
}

// Load reads configuration from the environment, falling back to a .env
// file in the working directory when present.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORAGE", "postgres")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("JWT_ISSUER", "medrx")
	v.SetDefault("ACCESS_TOKEN_TTL", "30m")
	v.SetDefault("AUTH_MODE", "local")
	v.SetDefault("ALLOW_ADMIN_SIGNUP", false)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("RATE_LIMIT_RPS", 1)
	v.SetDefault("RATE_LIMIT_BURST", 60)
	v.SetDefault("MIGRATIONS_DIR", "./migrations")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// viper decodes a comma separated env value as a single element
	origins := v.GetString("CORS_ORIGINS")
	if origins != "" {
		cfg.CORSOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	cfg.Storage = strings.ToLower(cfg.Storage)
	cfg.AuthMode = strings.ToLower(cfg.AuthMode)

	if cfg.Storage == "postgres" && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when STORAGE is postgres")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// UsesRemoteAuth reports whether token validation is delegated to another
// deployment of this service.
func (c *Config) UsesRemoteAuth() bool {
	return c.AuthMode == "remote"
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	if c.Storage != "postgres" && c.Storage != "memory" {
		return fmt.Errorf("STORAGE must be \"postgres\" or \"memory\", got %q", c.Storage)
	}
	if c.IsProduction() && c.Storage == "memory" {
		return fmt.Errorf("STORAGE=memory is not allowed in production")
	}

	switch c.AuthMode {
	case "local":
		if c.JWTSecret == "" && !c.IsDev() {
			return fmt.Errorf("JWT_SECRET is required when ENV=%q", c.Env)
		}
		if c.JWTSecret != "" && len(c.JWTSecret) < minSecretLen && !c.IsDev() {
			return fmt.Errorf("JWT_SECRET must be at least %d bytes, got %d", minSecretLen, len(c.JWTSecret))
		}
	case "remote":
		if c.AuthServiceURL == "" {
			return fmt.Errorf("AUTH_SERVICE_URL is required when AUTH_MODE is \"remote\"")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be \"local\" or \"remote\", got %q", c.AuthMode)
	}

	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive, got %s", c.AccessTokenTTL)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must not be negative")
	}

	// TLS validation: when TLS is enabled, cert and key files must be specified.
	if c.TLSEnabled {
		if c.TLSCertFile == "" {
			return fmt.Errorf("TLS_CERT_FILE is required when TLS_ENABLED is true")
		}
		if c.TLSKeyFile == "" {
			return fmt.Errorf("TLS_KEY_FILE is required when TLS_ENABLED is true")
		}
	}

	return nil
}
