package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// Mode errors are fatal here, at load time, rather than per request.
func (c *Config) Validate() error {
	var errs []error

	// server.port must be positive.
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	// auth.mode must be a known value.
	switch c.Auth.Mode {
	case "disabled", "api_key":
		// valid
	default:
		errs = append(errs, fmt.Errorf("auth.mode must be \"disabled\" or \"api_key\", got %q", c.Auth.Mode))
	}

	// auth.store must be a known value.
	switch c.Auth.Store {
	case "static", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("auth.store must be \"static\" or \"postgres\", got %q", c.Auth.Store))
	}

	// If auth.store is "postgres", DSN or DSNFile must be set.
	if c.Auth.Store == "postgres" {
		if c.Keystore.Postgres.DSN == "" && c.Keystore.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("keystore.postgres.dsn or keystore.postgres.dsn_file is required when auth.store is \"postgres\""))
		}
	}

	// rate_limit.mode must be a known value.
	switch c.RateLimit.Mode {
	case "noop", "memory", "redis":
		// valid
	default:
		errs = append(errs, fmt.Errorf("rate_limit.mode must be \"noop\", \"memory\", or \"redis\", got %q", c.RateLimit.Mode))
	}

	// rate_limit.rpm must be positive.
	if c.RateLimit.RPM <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.rpm must be > 0, got %d", c.RateLimit.RPM))
	}

	// If rate_limit.mode is "redis", a store URL must be set.
	if c.RateLimit.Mode == "redis" && c.RateLimit.RedisURL == "" {
		errs = append(errs, fmt.Errorf("rate_limit.redis_url is required when rate_limit.mode is \"redis\""))
	}

	// backend.provider must be a known value.
	switch c.Backend.Provider {
	case "stub", "openai":
		// valid
	default:
		errs = append(errs, fmt.Errorf("backend.provider must be \"stub\" or \"openai\", got %q", c.Backend.Provider))
	}

	// If backend.provider is "openai", a base URL must be set.
	if c.Backend.Provider == "openai" && c.Backend.BaseURL == "" {
		errs = append(errs, fmt.Errorf("backend.base_url is required when backend.provider is \"openai\""))
	}

	// secrets.provider must be a known value.
	switch c.Secrets.Provider {
	case "env", "file_json":
		// valid
	default:
		errs = append(errs, fmt.Errorf("secrets.provider must be \"env\" or \"file_json\", got %q", c.Secrets.Provider))
	}

	// If secrets.provider is "file_json", a file path must be set.
	if c.Secrets.Provider == "file_json" && c.Secrets.FilePath == "" {
		errs = append(errs, fmt.Errorf("secrets.file_path is required when secrets.provider is \"file_json\""))
	}

	return errors.Join(errs...)
}
