// Command server runs the einlass admission layer.
//
// Configuration comes from an optional YAML file (-config flag or
// discovery) plus environment overrides:
//
//	EINLASS_PORT            - Listen port (default: 8080)
//	EINLASS_AUTH_MODE       - Auth mode: "disabled" or "api_key" (default: disabled)
//	EINLASS_AUTH_STORE      - Key store: "static" or "postgres" (default: static)
//	EINLASS_RATE_LIMIT_MODE - Limiter mode: "noop", "memory", or "redis" (default: noop)
//	EINLASS_BACKEND         - Chat backend: "stub" or "openai" (default: stub)
//	EINLASS_DEBUG           - Debug categories (e.g. "provider,auth")
//	EINLASS_LOG_LEVEL       - ERROR, WARN, INFO, DEBUG, or TRACE (default: INFO)
//
// See pkg/config for the full setting list and file discovery rules.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/rhuss/einlass/pkg/auth"
	"github.com/rhuss/einlass/pkg/config"
	"github.com/rhuss/einlass/pkg/debug"
	"github.com/rhuss/einlass/pkg/keystore"
	"github.com/rhuss/einlass/pkg/keystore/postgres"
	"github.com/rhuss/einlass/pkg/observability"
	"github.com/rhuss/einlass/pkg/pipeline"
	"github.com/rhuss/einlass/pkg/provider"
	"github.com/rhuss/einlass/pkg/ratelimit"
	"github.com/rhuss/einlass/pkg/secrets"
	transporthttp "github.com/rhuss/einlass/pkg/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	debug.Init()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if cats := debug.Categories(); len(cats) > 0 {
		slog.Info("debug logging enabled", "categories", strings.Join(cats, ","))
	}

	ctx := context.Background()

	// Create the secret bundle for backend credentials.
	bundle, err := secrets.New(cfg.Secrets.Provider, cfg.Secrets.FilePath)
	if err != nil {
		return fmt.Errorf("creating secret bundle: %w", err)
	}

	// Create the key record source.
	source, closeSource, err := buildRecordSource(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating key record source: %w", err)
	}
	if closeSource != nil {
		defer closeSource()
	}

	// Create the authenticator.
	authn, err := auth.New(auth.Mode(cfg.Auth.Mode), source)
	if err != nil {
		return fmt.Errorf("creating authenticator: %w", err)
	}

	// Create the rate limiter.
	limiter, err := ratelimit.New(ratelimit.Config{
		Mode:        cfg.RateLimit.Mode,
		RPM:         cfg.RateLimit.RPM,
		RedisURL:    cfg.RateLimit.RedisURL,
		RedisPrefix: cfg.RateLimit.RedisPrefix,
	})
	if err != nil {
		return fmt.Errorf("creating rate limiter: %w", err)
	}
	if c, ok := limiter.(interface{ Close() error }); ok {
		defer c.Close()
	}

	// Create the chat backend.
	backend, err := provider.New(provider.Config{
		Backend:      cfg.Backend.Provider,
		Model:        cfg.Backend.Model,
		BaseURL:      cfg.Backend.BaseURL,
		Timeout:      cfg.Backend.Timeout,
		APIKeySecret: cfg.Backend.APIKeySecret,
	}, bundle)
	if err != nil {
		return fmt.Errorf("creating backend: %w", err)
	}
	defer backend.Close()

	// Assemble the admission pipeline.
	pipe := pipeline.New(authn, limiter,
		observability.NewInstrumentedBackend(backend, cfg.Backend.Model))

	metricsMode := "disabled"
	metricsPath := ""
	if cfg.Observability.Metrics.Enabled {
		metricsMode = "prometheus"
		metricsPath = cfg.Observability.Metrics.Path
	}
	recorder := observability.NewRecorder(metricsMode, cfg.Observability.Tracing, cfg.Observability.Alerts)

	srv := transporthttp.NewServer(pipe, recorder,
		transporthttp.WithAddr(":"+strconv.Itoa(cfg.Server.Port)),
		transporthttp.WithReadTimeout(cfg.Server.ReadTimeout),
		transporthttp.WithWriteTimeout(cfg.Server.WriteTimeout),
		transporthttp.WithLogger(slog.Default()),
		transporthttp.WithMetricsPath(metricsPath),
		transporthttp.WithService(transporthttp.ServiceInfo{
			Name:    cfg.Service.Name,
			Env:     cfg.Service.Env,
			Version: cfg.Service.Version,
			Modes: transporthttp.ServiceModes{
				Auth:      cfg.Auth.Mode,
				RateLimit: cfg.RateLimit.Mode,
				Backend:   cfg.Backend.Provider,
				Metrics:   metricsMode,
				Tracing:   cfg.Observability.Tracing,
			},
		}),
	)

	slog.Info("einlass starting",
		"env", cfg.Service.Env,
		"auth", cfg.Auth.Mode,
		"rate_limit", cfg.RateLimit.Mode,
		"backend", cfg.Backend.Provider)

	return srv.ListenAndServe()
}

// buildRecordSource creates the key record source for the configured
// store. The returned closer is nil for stores with nothing to release.
func buildRecordSource(ctx context.Context, cfg *config.Config) (auth.RecordSource, func() error, error) {
	if cfg.Auth.Mode != string(auth.ModeAPIKey) {
		return nil, nil, nil
	}

	switch cfg.Auth.Store {
	case "static":
		records := make([]keystore.Record, 0, len(cfg.Auth.APIKeys))
		for _, k := range cfg.Auth.APIKeys {
			records = append(records, keystore.Record{
				KeyID:      k.KeyID,
				SecretHash: k.SecretHash,
				Scopes:     k.Scopes,
				Disabled:   k.Disabled,
			})
		}
		table := auth.BuildStaticTable(records, cfg.Auth.LegacyAPIKeys, pipeline.ChatRoute.Scopes...)
		slog.Info("static key table loaded", "keys", table.Len())
		return table, nil, nil

	case "postgres":
		store, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Keystore.Postgres.DSN,
			MaxConns:       cfg.Keystore.Postgres.MaxConns,
			MigrateOnStart: cfg.Keystore.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported auth store: %q", cfg.Auth.Store)
	}
}
