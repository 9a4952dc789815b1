package memory

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rhuss/einlass/pkg/keystore"
)

func TestCreateAndGet(t *testing.T) {
	store := New(nil)
	ctx := context.Background()

	issued, err := store.Create(ctx, "client-a", []string{"platform:chat", "platform:meta"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if issued.SecretPlaintext == "" {
		t.Fatal("Create returned empty plaintext")
	}
	if issued.SecretHash != keystore.HashSecret(issued.SecretPlaintext) {
		t.Error("issued hash does not match hash of issued plaintext")
	}

	rec, err := store.Get(ctx, "client-a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Disabled {
		t.Error("new record should be enabled")
	}
	if rec.SecretHash != issued.SecretHash {
		t.Errorf("SecretHash = %q, want %q", rec.SecretHash, issued.SecretHash)
	}
	if !reflect.DeepEqual(rec.Scopes, []string{"platform:chat", "platform:meta"}) {
		t.Errorf("Scopes = %v, want both platform scopes", rec.Scopes)
	}
}

func TestCreateDuplicate(t *testing.T) {
	store := New(nil)
	ctx := context.Background()

	if _, err := store.Create(ctx, "client-a", nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := store.Create(ctx, "client-a", nil)
	if !errors.Is(err, keystore.ErrExists) {
		t.Errorf("second Create err = %v, want ErrExists", err)
	}
}

func TestCreateNormalizesScopes(t *testing.T) {
	store := New(nil)
	ctx := context.Background()

	issued, err := store.Create(ctx, "client-a", []string{" platform:chat ", "platform:chat", "", "platform:meta"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	want := []string{"platform:chat", "platform:meta"}
	if !reflect.DeepEqual(issued.Scopes, want) {
		t.Errorf("Scopes = %v, want %v", issued.Scopes, want)
	}
}

func TestRotate(t *testing.T) {
	store := New(nil)
	ctx := context.Background()

	first, err := store.Create(ctx, "client-a", []string{"platform:chat"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Revoke(ctx, "client-a"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	second, err := store.Rotate(ctx, "client-a")
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if second.SecretPlaintext == first.SecretPlaintext {
		t.Error("rotation should issue a new plaintext")
	}
	if second.SecretHash == first.SecretHash {
		t.Error("rotation should issue a new hash")
	}
	if !reflect.DeepEqual(second.Scopes, first.Scopes) {
		t.Errorf("Scopes = %v, want preserved %v", second.Scopes, first.Scopes)
	}

	rec, err := store.Get(ctx, "client-a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Disabled {
		t.Error("rotation should re-enable a revoked key")
	}
	if rec.SecretHash != second.SecretHash {
		t.Errorf("SecretHash = %q, want rotated %q", rec.SecretHash, second.SecretHash)
	}
}

func TestRotateNotFound(t *testing.T) {
	store := New(nil)
	_, err := store.Rotate(context.Background(), "nope")
	if !errors.Is(err, keystore.ErrNotFound) {
		t.Errorf("Rotate err = %v, want ErrNotFound", err)
	}
}

func TestRevoke(t *testing.T) {
	store := New(nil)
	ctx := context.Background()

	if _, err := store.Create(ctx, "client-a", []string{"platform:chat"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.Revoke(ctx, "client-a"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	rec, err := store.Get(ctx, "client-a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !rec.Disabled {
		t.Error("record should be disabled after revoke")
	}

	// Idempotent on an already disabled key.
	if err := store.Revoke(ctx, "client-a"); err != nil {
		t.Errorf("second Revoke: %v", err)
	}

	if err := store.Revoke(ctx, "absent"); !errors.Is(err, keystore.ErrNotFound) {
		t.Errorf("Revoke err = %v, want ErrNotFound", err)
	}
}

func TestGetNotFound(t *testing.T) {
	store := New(nil)
	_, err := store.Get(context.Background(), "nope")
	if !errors.Is(err, keystore.ErrNotFound) {
		t.Errorf("Get err = %v, want ErrNotFound", err)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	store := New(nil)
	ctx := context.Background()

	if _, err := store.Create(ctx, "client-a", []string{"platform:chat"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec, _ := store.Get(ctx, "client-a")
	rec.Disabled = true
	rec.Scopes[0] = "mutated"

	fresh, _ := store.Get(ctx, "client-a")
	if fresh.Disabled {
		t.Error("mutating a returned record should not affect the store")
	}
	if fresh.Scopes[0] != "platform:chat" {
		t.Error("mutating returned scopes should not affect the store")
	}
}
