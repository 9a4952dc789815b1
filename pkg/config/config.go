// Package config provides unified configuration for the einlass
// admission layer.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (EINLASS_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the einlass admission layer.
type Config struct {
	Service       ServiceConfig       `yaml:"service"`
	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	Keystore      KeystoreConfig      `yaml:"keystore"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Backend       BackendConfig       `yaml:"backend"`
	Secrets       SecretsConfig       `yaml:"secrets"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServiceConfig identifies the deployment for health and metadata
// endpoints.
type ServiceConfig struct {
	Name    string `yaml:"name"`    // default: "einlass"
	Env     string `yaml:"env"`     // default: "development"
	Version string `yaml:"version"` // default: "0.1.0"
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`          // default: 8080
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"` // default: 120s
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	Mode  string `yaml:"mode"`  // "disabled" or "api_key", default: "disabled"
	Store string `yaml:"store"` // "static" or "postgres", default: "static"

	// APIKeys are static key records for store=static. When non-empty
	// they win outright over LegacyAPIKeys; the two are never merged.
	APIKeys []APIKeyConfig `yaml:"api_keys"`

	// LegacyAPIKeys is a comma-joined list of key_id:secret pairs kept
	// for older deployments. Entries are hashed at load and granted the
	// chat scope.
	LegacyAPIKeys string `yaml:"legacy_api_keys"`
}

// APIKeyConfig describes a single static key record.
type APIKeyConfig struct {
	KeyID      string   `yaml:"key_id" json:"key_id"`
	SecretHash string   `yaml:"secret_hash" json:"secret_hash"`
	Scopes     []string `yaml:"scopes" json:"scopes"`
	Disabled   bool     `yaml:"disabled" json:"disabled"`
}

// KeystoreConfig holds key persistence settings for auth.store=postgres.
type KeystoreConfig struct {
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 25
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// RateLimitConfig holds rate limiter settings.
type RateLimitConfig struct {
	Mode        string `yaml:"mode"`         // "noop", "memory", or "redis", default: "noop"
	RPM         int    `yaml:"rpm"`          // default: 60
	RedisURL    string `yaml:"redis_url"`    // default: "redis://localhost:6379/0"
	RedisPrefix string `yaml:"redis_prefix"` // default: "einlass:rl"
}

// BackendConfig holds chat backend settings.
type BackendConfig struct {
	Provider     string        `yaml:"provider"`       // "stub" or "openai", default: "stub"
	Model        string        `yaml:"model"`          // default: "stub-echo"
	BaseURL      string        `yaml:"base_url"`       // default: "https://api.openai.com/v1"
	Timeout      time.Duration `yaml:"timeout"`        // default: 30s
	APIKeySecret string        `yaml:"api_key_secret"` // default: "OPENAI_API_KEY"
}

// SecretsConfig holds secret resolution settings.
type SecretsConfig struct {
	Provider string `yaml:"provider"`  // "env" or "file_json", default: "env"
	FilePath string `yaml:"file_path"` // default: "secrets.local.json"
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing string        `yaml:"tracing"` // default: "disabled"
	Alerts  string        `yaml:"alerts"`  // default: "disabled"
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Service: ServiceConfig{
			Name:    "einlass",
			Env:     "development",
			Version: "0.1.0",
		},
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
		},
		Auth: AuthConfig{
			Mode:  "disabled",
			Store: "static",
		},
		Keystore: KeystoreConfig{
			Postgres: PostgresConfig{
				MaxConns: 25,
			},
		},
		RateLimit: RateLimitConfig{
			Mode:        "noop",
			RPM:         60,
			RedisURL:    "redis://localhost:6379/0",
			RedisPrefix: "einlass:rl",
		},
		Backend: BackendConfig{
			Provider:     "stub",
			Model:        "stub-echo",
			BaseURL:      "https://api.openai.com/v1",
			Timeout:      30 * time.Second,
			APIKeySecret: "OPENAI_API_KEY",
		},
		Secrets: SecretsConfig{
			Provider: "env",
			FilePath: "secrets.local.json",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
			Tracing: "disabled",
			Alerts:  "disabled",
		},
	}
}
