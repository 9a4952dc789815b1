package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, EINLASS_CONFIG env, ./config.yaml, /etc/einlass/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	// Start with defaults.
	cfg := Defaults()

	// Discover and load YAML config file.
	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	// Apply environment variable overrides.
	applyEnvOverrides(&cfg)

	// Resolve _file references.
	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	// Validate.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. EINLASS_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/einlass/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	// Explicit path takes priority.
	if configPath != "" {
		return configPath
	}

	// Check EINLASS_CONFIG env var.
	if envPath := os.Getenv("EINLASS_CONFIG"); envPath != "" {
		return envPath
	}

	// Check common locations.
	candidates := []string{
		"config.yaml",
		"/etc/einlass/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps environment variables to config fields. Env
// values win over both defaults and the YAML file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("EINLASS_ENV"); v != "" {
		cfg.Service.Env = v
	}
	if v := os.Getenv("EINLASS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("EINLASS_AUTH_MODE"); v != "" {
		cfg.Auth.Mode = v
	}
	if v := os.Getenv("EINLASS_AUTH_STORE"); v != "" {
		cfg.Auth.Store = v
	}
	if v := os.Getenv("EINLASS_POSTGRES_DSN"); v != "" {
		cfg.Keystore.Postgres.DSN = v
	}
	if v := os.Getenv("EINLASS_RATE_LIMIT_MODE"); v != "" {
		cfg.RateLimit.Mode = v
	}
	if v := os.Getenv("EINLASS_RATE_LIMIT_RPM"); v != "" {
		if rpm, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.RPM = rpm
		}
	}
	if v := os.Getenv("EINLASS_REDIS_URL"); v != "" {
		cfg.RateLimit.RedisURL = v
	}
	if v := os.Getenv("EINLASS_BACKEND"); v != "" {
		cfg.Backend.Provider = v
	}
	if v := os.Getenv("EINLASS_MODEL"); v != "" {
		cfg.Backend.Model = v
	}
	if v := os.Getenv("EINLASS_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("EINLASS_BACKEND_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Backend.Timeout = d
		}
	}
	if v := os.Getenv("EINLASS_SECRET_PROVIDER"); v != "" {
		cfg.Secrets.Provider = v
	}

	// EINLASS_API_KEYS: JSON array of static key records.
	if v := os.Getenv("EINLASS_API_KEYS"); v != "" {
		keys, err := parseAPIKeysJSON(v)
		if err == nil && len(keys) > 0 {
			cfg.Auth.APIKeys = keys
		}
	}

	// EINLASS_REQUIRED_API_KEYS: legacy comma-joined key_id:secret pairs.
	if v := os.Getenv("EINLASS_REQUIRED_API_KEYS"); v != "" {
		cfg.Auth.LegacyAPIKeys = v
	}
}

// parseAPIKeysJSON parses a JSON array of static key records.
func parseAPIKeysJSON(jsonStr string) ([]APIKeyConfig, error) {
	var keys []APIKeyConfig
	if err := json.Unmarshal([]byte(jsonStr), &keys); err != nil {
		return nil, fmt.Errorf("parsing API keys JSON: %w", err)
	}
	return keys, nil
}

// resolveFileReferences reads _file fields and populates the corresponding
// value fields. For each field ending in _file, if the value field is empty
// and the file field is set, the file is read, whitespace is trimmed, and
// the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// keystore.postgres.dsn_file -> keystore.postgres.dsn
	if cfg.Keystore.Postgres.DSNFile != "" && cfg.Keystore.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Keystore.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("keystore.postgres.dsn_file: %w", err)
		}
		cfg.Keystore.Postgres.DSN = val
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding
// whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
