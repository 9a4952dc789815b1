package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/rhuss/einlass/pkg/keystore"
)

func init() {
	// Configure testcontainers to use podman.
	// Detect the podman socket from `podman machine inspect`.
	if os.Getenv("DOCKER_HOST") == "" {
		out, err := exec.Command("podman", "machine", "inspect", "--format", "{{.ConnectionInfo.PodmanSocket.Path}}").Output()
		if err == nil {
			sock := strings.TrimSpace(string(out))
			if sock != "" {
				os.Setenv("DOCKER_HOST", "unix://"+sock)
			}
		}
	}
	// Ryuk needs privileged mode with podman.
	if os.Getenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED") == "" {
		os.Setenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED", "true")
	}
}

// setupTestDB starts a PostgreSQL container and returns a connected Store.
// Tests are skipped if no container runtime is available.
func setupTestDB(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true, skipping PostgreSQL integration tests")
	}

	if _, err := exec.LookPath("podman"); err != nil {
		t.Skip("podman not found, skipping integration tests")
	}

	ctx := context.Background()

	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("einlass_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start PostgreSQL container (is podman running?): %v", err)
	}

	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}

	store, err := New(ctx, Config{
		DSN:            connStr,
		MaxConns:       5,
		MinConns:       1,
		MigrateOnStart: true,
	})
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func uniqueKeyID(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

func TestPostgres_CreateAndGet(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	keyID := uniqueKeyID("client_create")
	issued, err := store.Create(ctx, keyID, []string{"platform:chat", "platform:meta"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if issued.SecretPlaintext == "" {
		t.Fatal("Create returned empty plaintext")
	}
	if issued.SecretHash != keystore.HashSecret(issued.SecretPlaintext) {
		t.Error("issued hash does not match hash of issued plaintext")
	}

	rec, err := store.Get(ctx, keyID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.KeyID != keyID {
		t.Errorf("KeyID = %q, want %q", rec.KeyID, keyID)
	}
	if rec.Disabled {
		t.Error("new record should be enabled")
	}
	if rec.SecretHash != issued.SecretHash {
		t.Errorf("SecretHash = %q, want %q", rec.SecretHash, issued.SecretHash)
	}
	// Scopes come back sorted.
	want := []string{"platform:chat", "platform:meta"}
	if !reflect.DeepEqual(rec.Scopes, want) {
		t.Errorf("Scopes = %v, want %v", rec.Scopes, want)
	}
}

func TestPostgres_CreateDuplicate(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	keyID := uniqueKeyID("client_dup")
	if _, err := store.Create(ctx, keyID, nil); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err := store.Create(ctx, keyID, nil)
	if !errors.Is(err, keystore.ErrExists) {
		t.Errorf("expected ErrExists, got %v", err)
	}
}

func TestPostgres_GetNotFound(t *testing.T) {
	store := setupTestDB(t)

	_, err := store.Get(context.Background(), "client_nonexistent")
	if !errors.Is(err, keystore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_Rotate(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	keyID := uniqueKeyID("client_rotate")
	first, err := store.Create(ctx, keyID, []string{"platform:chat"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Revoke(ctx, keyID); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	second, err := store.Rotate(ctx, keyID)
	if err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}
	if second.SecretHash == first.SecretHash {
		t.Error("rotation should issue a new hash")
	}
	if !reflect.DeepEqual(second.Scopes, []string{"platform:chat"}) {
		t.Errorf("Scopes = %v, want preserved [platform:chat]", second.Scopes)
	}

	rec, err := store.Get(ctx, keyID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.Disabled {
		t.Error("rotation should re-enable a revoked key")
	}
	if rec.SecretHash != second.SecretHash {
		t.Errorf("SecretHash = %q, want rotated %q", rec.SecretHash, second.SecretHash)
	}
}

func TestPostgres_RotateNotFound(t *testing.T) {
	store := setupTestDB(t)

	_, err := store.Rotate(context.Background(), "client_nonexistent")
	if !errors.Is(err, keystore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_Revoke(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	keyID := uniqueKeyID("client_revoke")
	if _, err := store.Create(ctx, keyID, []string{"platform:chat"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.Revoke(ctx, keyID); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	rec, err := store.Get(ctx, keyID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !rec.Disabled {
		t.Error("record should be disabled after revoke")
	}

	// Idempotent on an already disabled key.
	if err := store.Revoke(ctx, keyID); err != nil {
		t.Errorf("second Revoke failed: %v", err)
	}

	if err := store.Revoke(ctx, "client_nonexistent"); !errors.Is(err, keystore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
