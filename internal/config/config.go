// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

// Package config loads service configuration from defaults, an optional YAML
// file, environment overrides, and command-line flags, in that order.
package config

import (
	"net/url"
	"runtime"
	"time"

	"github.com/samber/oops"

	"github.com/lahmamsi/librarymanagement/internal/auth"
	"github.com/lahmamsi/librarymanagement/internal/logging"
	"github.com/lahmamsi/librarymanagement/internal/store"
)

// Redacted replaces secret values in displayed configuration.
const Redacted = "REDACTED"

// Config is the complete service configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server" json:"server"`
	Metrics  MetricsConfig  `koanf:"metrics" json:"metrics"`
	Database DatabaseConfig `koanf:"database" json:"database"`
	Auth     AuthConfig     `koanf:"auth" json:"auth"`
	Log      LogConfig      `koanf:"log" json:"log"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr             string        `koanf:"addr" json:"addr" jsonschema:"description=HTTP listen address"`
	ReadTimeout      time.Duration `koanf:"read_timeout" json:"read_timeout" jsonschema:"type=string,description=Go duration such as 15s"`
	WriteTimeout     time.Duration `koanf:"write_timeout" json:"write_timeout" jsonschema:"type=string"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout" jsonschema:"type=string"`
	CORSOrigins      []string      `koanf:"cors_origins" json:"cors_origins" jsonschema:"description=Allowed CORS origins; empty disables CORS"`
	OpenRegistration bool          `koanf:"open_registration" json:"open_registration" jsonschema:"description=Allow unauthenticated librarian registration"`
}

// MetricsConfig configures the observability listener.
type MetricsConfig struct {
	Addr string `koanf:"addr" json:"addr" jsonschema:"description=Metrics and health listen address; empty disables"`
}

// DatabaseConfig configures PostgreSQL access.
type DatabaseConfig struct {
	URL            string        `koanf:"url" json:"url" jsonschema:"description=PostgreSQL connection URL"`
	MaxConns       int32         `koanf:"max_conns" json:"max_conns" jsonschema:"minimum=0"`
	ConnectTimeout time.Duration `koanf:"connect_timeout" json:"connect_timeout" jsonschema:"type=string"`
	AutoMigrate    bool          `koanf:"auto_migrate" json:"auto_migrate"`
}

// AuthConfig configures credential checks and tokens.
type AuthConfig struct {
	Hasher              string        `koanf:"hasher" json:"hasher" jsonschema:"enum=bcrypt,enum=argon2id"`
	BcryptCost          int           `koanf:"bcrypt_cost" json:"bcrypt_cost" jsonschema:"minimum=4,maximum=31"`
	MaxConcurrentHashes int           `koanf:"max_concurrent_hashes" json:"max_concurrent_hashes" jsonschema:"minimum=1"`
	JWTSecret           string        `koanf:"jwt_secret" json:"jwt_secret" jsonschema:"description=HMAC secret of at least 32 bytes"`
	JWTIssuer           string        `koanf:"jwt_issuer" json:"jwt_issuer"`
	TokenTTL            time.Duration `koanf:"token_ttl" json:"token_ttl" jsonschema:"type=string"`
	Lockout             LockoutConfig `koanf:"lockout" json:"lockout"`
}

// LockoutConfig configures temporary lockout after repeated failures.
type LockoutConfig struct {
	Enabled   bool          `koanf:"enabled" json:"enabled"`
	Threshold int           `koanf:"threshold" json:"threshold" jsonschema:"minimum=1"`
	Duration  time.Duration `koanf:"duration" json:"duration" jsonschema:"type=string"`
}

// LogConfig configures logging.
type LogConfig struct {
	Format string `koanf:"format" json:"format" jsonschema:"enum=text,enum=json"`
	Level  string `koanf:"level" json:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// defaults returns the built-in configuration as a flat koanf map.
func defaults() map[string]any {
	return map[string]any{
		"server.addr":                ":8080",
		"server.read_timeout":        "15s",
		"server.write_timeout":       "15s",
		"server.shutdown_timeout":    "10s",
		"server.cors_origins":        []string{},
		"server.open_registration":   false,
		"metrics.addr":               "127.0.0.1:9100",
		"database.url":               "",
		"database.max_conns":         store.DefaultMaxConns,
		"database.connect_timeout":   store.DefaultConnectTimeout.String(),
		"database.auto_migrate":      false,
		"auth.hasher":                auth.HasherBcrypt,
		"auth.bcrypt_cost":           auth.DefaultBcryptCost,
		"auth.max_concurrent_hashes": runtime.NumCPU(),
		"auth.jwt_secret":            "",
		"auth.jwt_issuer":            auth.DefaultTokenIssuer,
		"auth.token_ttl":             auth.DefaultTokenTTL.String(),
		"auth.lockout.enabled":       true,
		"auth.lockout.threshold":     auth.DefaultLockoutThreshold,
		"auth.lockout.duration":      auth.DefaultLockoutDuration.String(),
		"log.format":                 logging.FormatText,
		"log.level":                  "info",
	}
}

// Validate checks values every command depends on.
func (c *Config) Validate() error {
	switch {
	case c.Server.Addr == "":
		return invalid("server.addr", "must not be empty")
	case c.Server.ReadTimeout <= 0:
		return invalid("server.read_timeout", "must be positive")
	case c.Server.WriteTimeout <= 0:
		return invalid("server.write_timeout", "must be positive")
	case c.Server.ShutdownTimeout <= 0:
		return invalid("server.shutdown_timeout", "must be positive")
	case c.Database.MaxConns < 0:
		return invalid("database.max_conns", "must not be negative")
	case c.Database.ConnectTimeout <= 0:
		return invalid("database.connect_timeout", "must be positive")
	case c.Auth.Hasher != auth.HasherBcrypt && c.Auth.Hasher != auth.HasherArgon2id:
		return invalid("auth.hasher", "must be bcrypt or argon2id")
	case c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31:
		return invalid("auth.bcrypt_cost", "must be between 4 and 31")
	case c.Auth.MaxConcurrentHashes < 1:
		return invalid("auth.max_concurrent_hashes", "must be at least 1")
	case c.Auth.TokenTTL <= 0:
		return invalid("auth.token_ttl", "must be positive")
	case c.Auth.JWTIssuer == "":
		return invalid("auth.jwt_issuer", "must not be empty")
	case c.Auth.Lockout.Enabled && c.Auth.Lockout.Threshold < 1:
		return invalid("auth.lockout.threshold", "must be at least 1")
	case c.Auth.Lockout.Enabled && c.Auth.Lockout.Duration <= 0:
		return invalid("auth.lockout.duration", "must be positive")
	case c.Log.Format != logging.FormatText && c.Log.Format != logging.FormatJSON:
		return invalid("log.format", "must be text or json")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// RequireDatabase checks that a database URL is configured.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return invalid("database.url", "is required (set database.url or DATABASE_URL)")
	}
	return nil
}

// ValidateServe checks everything the API server needs.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := c.RequireDatabase(); err != nil {
		return err
	}
	if len(c.Auth.JWTSecret) < auth.MinSecretLength {
		return invalid("auth.jwt_secret", "must be at least 32 bytes (set auth.jwt_secret or LIBRARYMS_JWT_SECRET)")
	}
	return nil
}

// Lockout returns the throttle settings, or nil when lockout is disabled.
func (c *Config) Lockout() *auth.ThrottleConfig {
	if !c.Auth.Lockout.Enabled {
		return nil
	}
	return &auth.ThrottleConfig{
		Threshold: c.Auth.Lockout.Threshold,
		Duration:  c.Auth.Lockout.Duration,
	}
}

// redactURL hides the password component of a database URL.
func redactURL(raw string) string {
	if raw == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Redacted
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), Redacted)
	}
	return u.String()
}

func invalid(key, msg string) error {
	return oops.Code("CONFIG_INVALID").With("key", key).Errorf("%s %s", key, msg)
}
