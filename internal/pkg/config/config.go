// Package config builds the typed application configuration from the
// environment and fails fast on missing secrets.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ManuelReschke/Storefront/internal/pkg/env"
	"github.com/ManuelReschke/Storefront/internal/pkg/validation"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	AppHost string `env:"APP_HOST" validate:"required"`
	AppPort string `env:"APP_PORT" validate:"required,numeric"`
	AppURL  string `env:"APP_URL" validate:"required,url"`

	StripeSecretKey     string `env:"STRIPE_SECRET_KEY" validate:"required"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET" validate:"required"`

	DB    DatabaseConfig
	Cache CacheConfig

	CheckoutRateLimit int `env:"CHECKOUT_RATE_LIMIT" validate:"min=1"`
	APIRateLimit      int `env:"API_RATE_LIMIT" validate:"min=1"`

	// ProxyHeader carries the client address, but only on requests from
	// TrustedProxies. Without a trusted proxy the socket address is used.
	ProxyHeader    string   `env:"PROXY_HEADER"`
	TrustedProxies []string `env:"TRUSTED_PROXIES" validate:"dive,ip|cidr"`

	AdminUser         string `env:"ADMIN_USER" validate:"required_with=AdminPasswordHash"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH" validate:"required_with=AdminUser"`
}

type DatabaseConfig struct {
	Host     string `env:"DB_HOST"`
	Port     string `env:"DB_PORT" validate:"omitempty,numeric"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME"`
}

type CacheConfig struct {
	Host     string `env:"CACHE_HOST"`
	Port     string `env:"CACHE_PORT" validate:"omitempty,numeric"`
	Password string `env:"CACHE_PASSWORD"`
}

// AdminEnabled reports whether admin credentials are configured.
func (c *Config) AdminEnabled() bool {
	return c.AdminUser != "" && c.AdminPasswordHash != ""
}

// ListenAddr is the host:port the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%s", c.AppHost, c.AppPort)
}

// DSN is the MySQL data source name.
func (d DatabaseConfig) DSN() string {
	// "user:pass@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=True&loc=Local"
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// MigrateURL is the golang-migrate database URL for the same server.
func (d DatabaseConfig) MigrateURL() string {
	return fmt.Sprintf("mysql://%s:%s@tcp(%s:%s)/%s?multiStatements=true",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// Redacted identifies the database without the password, for logs.
func (d DatabaseConfig) Redacted() string {
	return fmt.Sprintf("%s@%s:%s/%s", d.User, d.Host, d.Port, d.Name)
}

var validate = validation.New("env")

// LoadDatabase reads only the DB_* variables. Tools that touch the database
// without serving traffic use it instead of Load.
func LoadDatabase() DatabaseConfig {
	return DatabaseConfig{
		Host:     env.GetEnv("DB_HOST", "127.0.0.1"),
		Port:     env.GetEnv("DB_PORT", "3306"),
		User:     env.GetEnv("DB_USER", ""),
		Password: env.GetEnv("DB_PASSWORD", ""),
		Name:     env.GetEnv("DB_NAME", ""),
	}
}

// Load reads the configuration through env.GetEnv. Every invalid variable
// is reported in one error.
func Load() (*Config, error) {
	cfg := &Config{
		AppHost:             env.GetEnv("APP_HOST", "localhost"),
		AppPort:             env.GetEnv("APP_PORT", "4000"),
		AppURL:              strings.TrimRight(env.GetEnv("APP_URL", ""), "/"),
		StripeSecretKey:     strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", "")),
		StripeWebhookSecret: strings.TrimSpace(env.GetEnv("STRIPE_WEBHOOK_SECRET", "")),
		DB:                  LoadDatabase(),
		Cache: CacheConfig{
			Host:     env.GetEnv("CACHE_HOST", ""),
			Port:     env.GetEnv("CACHE_PORT", "6379"),
			Password: env.GetEnv("CACHE_PASSWORD", ""),
		},
		ProxyHeader:       strings.TrimSpace(env.GetEnv("PROXY_HEADER", "X-Forwarded-For")),
		TrustedProxies:    listEnv("TRUSTED_PROXIES"),
		AdminUser:         env.GetEnv("ADMIN_USER", ""),
		AdminPasswordHash: env.GetEnv("ADMIN_PASSWORD_HASH", ""),
	}

	var errs []error
	var err error
	if cfg.CheckoutRateLimit, err = intEnv("CHECKOUT_RATE_LIMIT", 2); err != nil {
		errs = append(errs, err)
	}
	if cfg.APIRateLimit, err = intEnv("API_RATE_LIMIT", 60); err != nil {
		errs = append(errs, err)
	}

	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, fmt.Errorf("config: %w", err)
		}
		for _, fe := range fieldErrs {
			errs = append(errs, fmt.Errorf("config: %s", describe(fe)))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "required_with":
		return fe.Field() + " must be set together with " + pairedVar(fe.Field())
	case "url":
		return fe.Field() + " must be an absolute URL"
	case "numeric":
		return fe.Field() + " must be numeric"
	case "ip|cidr":
		return fe.Field() + " must be an IP address or CIDR range"
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}

func pairedVar(name string) string {
	if name == "ADMIN_USER" {
		return "ADMIN_PASSWORD_HASH"
	}
	return "ADMIN_USER"
}

func intEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(env.GetEnv(key, ""))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be an integer", key)
	}
	return v, nil
}

// listEnv splits a comma separated variable, dropping empty items.
func listEnv(key string) []string {
	var out []string
	for _, item := range strings.Split(env.GetEnv(key, ""), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
