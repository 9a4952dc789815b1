package integration

import (
	"bytes"
	"net/http"
	"strings"
	"testing"
)

// TestChatRejections walks the admission rejection taxonomy over the
// wire and checks each mapped status and error type.
func TestChatRejections(t *testing.T) {
	tests := []struct {
		name       string
		credential string
		wantStatus int
		wantType   string
	}{
		{"no credential", "", http.StatusUnauthorized, "auth_error"},
		{"malformed credential", "no-delimiter", http.StatusUnauthorized, "auth_error"},
		{"unknown key", "ghost:whatever", http.StatusUnauthorized, "invalid_credential"},
		{"wrong secret", "client-a:wrong", http.StatusUnauthorized, "invalid_credential"},
		{"disabled key", "retired:retired-secret", http.StatusUnauthorized, "invalid_credential"},
		{"missing scope", "reporter:report-secret", http.StatusForbidden, "missing_scopes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postChat(t, tt.credential, "hello")
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body: %s)", resp.StatusCode, tt.wantStatus, readBody(t, resp))
			}

			var env errorEnvelope
			decodeJSON(t, resp, &env)
			if env.Error.Type != tt.wantType {
				t.Errorf("error type = %q, want %q", env.Error.Type, tt.wantType)
			}
		})
	}
}

// TestChatRejectionCarriesNoWindowHeaders verifies that a request
// rejected before the limiter runs reports no window state.
func TestChatRejectionCarriesNoWindowHeaders(t *testing.T) {
	resp := postChat(t, "ghost:whatever", "hello")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
	if got := resp.Header.Get("X-RateLimit-Limit"); got != "" {
		t.Errorf("X-RateLimit-Limit = %q on a pre-limiter rejection, want empty", got)
	}
}

// TestChatMissingScopeNamesScope verifies the missing scope is spelled
// out for the caller.
func TestChatMissingScopeNamesScope(t *testing.T) {
	resp := postChat(t, "reporter:report-secret", "hello")

	var env errorEnvelope
	decodeJSON(t, resp, &env)
	if !strings.Contains(env.Error.Message, "platform:chat") {
		t.Errorf("error message %q does not name the missing scope", env.Error.Message)
	}
}

// TestChatValidation verifies the request body checks in front of the
// pipeline.
func TestChatValidation(t *testing.T) {
	t.Run("missing prompt", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, testEnv.BaseURL()+"/v1/platform/chat",
			strings.NewReader(`{"conversation_id":"c1"}`))
		if err != nil {
			t.Fatalf("creating request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-Key", "client-a:integ-secret")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
		}

		var env errorEnvelope
		decodeJSON(t, resp, &env)
		if env.Error.Type != "invalid_request" {
			t.Errorf("error type = %q, want %q", env.Error.Type, "invalid_request")
		}
		if env.Error.Param != "prompt" {
			t.Errorf("error param = %q, want %q", env.Error.Param, "prompt")
		}
	})

	t.Run("malformed JSON", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, testEnv.BaseURL()+"/v1/platform/chat",
			strings.NewReader(`{not json`))
		if err != nil {
			t.Fatalf("creating request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
		}
	})

	t.Run("wrong content type", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, testEnv.BaseURL()+"/v1/platform/chat",
			bytes.NewReader([]byte(`{"prompt":"hello"}`)))
		if err != nil {
			t.Fatalf("creating request: %v", err)
		}
		req.Header.Set("Content-Type", "text/plain")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusUnsupportedMediaType {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnsupportedMediaType)
		}
	})
}

// TestChatUpstreamFailure verifies that a backend failure surfaces as a
// bad gateway with the provider error type, after admission succeeded.
func TestChatUpstreamFailure(t *testing.T) {
	resp := postChat(t, "client-a:integ-secret", "fail please")
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d (body: %s)", resp.StatusCode, http.StatusBadGateway, readBody(t, resp))
	}

	var env errorEnvelope
	decodeJSON(t, resp, &env)
	if env.Error.Type != "provider_error" {
		t.Errorf("error type = %q, want %q", env.Error.Type, "provider_error")
	}
	if !strings.Contains(env.Error.Message, "deliberate upstream failure") {
		t.Errorf("error message %q does not carry the upstream detail", env.Error.Message)
	}
}
