// Package postgres provides a PostgreSQL implementation of keystore.Store.
// It uses pgx/v5 for connection pooling and keeps key metadata and scopes
// in separate tables.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rhuss/einlass/pkg/keystore"
)

// Store is a PostgreSQL-backed key store.
type Store struct {
	pool *pgxpool.Pool
	hash keystore.Hasher
}

// Ensure Store implements keystore.Store at compile time.
var _ keystore.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool, hash: cfg.Hasher}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// Get retrieves a key record with its scopes.
func (s *Store) Get(ctx context.Context, keyID string) (*keystore.Record, error) {
	var rec keystore.Record
	err := s.pool.QueryRow(ctx, `
		SELECT key_id, secret_hash, disabled
		FROM einlass_api_keys
		WHERE key_id = $1
	`, keyID).Scan(&rec.KeyID, &rec.SecretHash, &rec.Disabled)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, keystore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying key: %w", err)
	}

	scopes, err := s.getScopes(ctx, keyID)
	if err != nil {
		return nil, err
	}
	rec.Scopes = scopes

	return &rec, nil
}

// Create provisions a new key with a freshly generated secret. The key
// and its scopes are inserted in one transaction.
func (s *Store) Create(ctx context.Context, keyID string, scopes []string) (*keystore.Issued, error) {
	plaintext := keystore.NewSecret()
	hash := s.hash(plaintext)
	normalized := keystore.NormalizeScopes(scopes)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO einlass_api_keys (key_id, secret_hash, disabled)
		VALUES ($1, $2, FALSE)
	`, keyID, hash)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, keystore.ErrExists
		}
		return nil, fmt.Errorf("inserting key: %w", err)
	}

	for _, scope := range normalized {
		if _, err := tx.Exec(ctx, `
			INSERT INTO einlass_api_key_scopes (key_id, scope)
			VALUES ($1, $2)
		`, keyID, scope); err != nil {
			return nil, fmt.Errorf("inserting scope: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing key creation: %w", err)
	}

	return &keystore.Issued{
		KeyID:           keyID,
		SecretPlaintext: plaintext,
		SecretHash:      hash,
		Scopes:          normalized,
	}, nil
}

// Rotate replaces the secret of an existing key, preserving its scopes
// and re-enabling it.
func (s *Store) Rotate(ctx context.Context, keyID string) (*keystore.Issued, error) {
	plaintext := keystore.NewSecret()
	hash := s.hash(plaintext)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		UPDATE einlass_api_keys
		SET secret_hash = $2, disabled = FALSE, updated_at = now()
		WHERE key_id = $1
	`, keyID, hash)
	if err != nil {
		return nil, fmt.Errorf("rotating key: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, keystore.ErrNotFound
	}

	rows, err := tx.Query(ctx, `
		SELECT scope FROM einlass_api_key_scopes
		WHERE key_id = $1
		ORDER BY scope
	`, keyID)
	if err != nil {
		return nil, fmt.Errorf("querying scopes: %w", err)
	}
	scopes, err := collectScopes(rows)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing key rotation: %w", err)
	}

	return &keystore.Issued{
		KeyID:           keyID,
		SecretPlaintext: plaintext,
		SecretHash:      hash,
		Scopes:          scopes,
	}, nil
}

// Revoke disables a key. Revoking an already disabled key succeeds.
func (s *Store) Revoke(ctx context.Context, keyID string) error {
	result, err := s.pool.Exec(ctx, `
		UPDATE einlass_api_keys
		SET disabled = TRUE, updated_at = now()
		WHERE key_id = $1
	`, keyID)
	if err != nil {
		return fmt.Errorf("revoking key: %w", err)
	}
	if result.RowsAffected() == 0 {
		return keystore.ErrNotFound
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) getScopes(ctx context.Context, keyID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT scope FROM einlass_api_key_scopes
		WHERE key_id = $1
		ORDER BY scope
	`, keyID)
	if err != nil {
		return nil, fmt.Errorf("querying scopes: %w", err)
	}
	return collectScopes(rows)
}

func collectScopes(rows pgx.Rows) ([]string, error) {
	defer rows.Close()

	scopes := []string{}
	for rows.Next() {
		var scope string
		if err := rows.Scan(&scope); err != nil {
			return nil, fmt.Errorf("scanning scope: %w", err)
		}
		scopes = append(scopes, scope)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading scopes: %w", err)
	}
	return scopes, nil
}

// isDuplicateKey checks if the error is a PostgreSQL unique violation (23505).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
