package keystore

import (
	"fmt"
	"reflect"
	"testing"
)

func TestHashSecretDeterministic(t *testing.T) {
	if HashSecret("secret-a") != HashSecret("secret-a") {
		t.Error("same input should produce the same hash")
	}
	// sha256 hex digest is always 64 characters.
	if got := len(HashSecret("x")); got != 64 {
		t.Errorf("hash length = %d, want 64", got)
	}
}

func TestHashSecretDistinctInputs(t *testing.T) {
	seen := make(map[string]string)
	for i := 0; i < 500; i++ {
		input := fmt.Sprintf("secret-%d", i)
		hash := HashSecret(input)
		if prev, ok := seen[hash]; ok {
			t.Fatalf("hash collision: %q and %q both map to %s", prev, input, hash)
		}
		seen[hash] = input
	}
}

func TestNewSecret(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s := NewSecret()
		// 24 random bytes encode to 32 base64url characters.
		if len(s) != 32 {
			t.Fatalf("secret length = %d, want 32", len(s))
		}
		for _, r := range s {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			default:
				t.Fatalf("secret contains non-URL-safe character %q", r)
			}
		}
		if seen[s] {
			t.Fatalf("duplicate secret generated: %s", s)
		}
		seen[s] = true
	}
}

func TestNormalizeScopes(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"empty", nil, []string{}},
		{"passthrough", []string{"platform:chat"}, []string{"platform:chat"}},
		{"dedupe keeps first", []string{"a", "b", "a"}, []string{"a", "b"}},
		{"trims whitespace", []string{" a ", "b"}, []string{"a", "b"}},
		{"drops empty", []string{"", "a", "  "}, []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeScopes(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeScopes(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
