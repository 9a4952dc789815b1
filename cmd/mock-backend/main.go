// Command mock-backend runs a deterministic OpenAI-compatible Chat
// Completions server for exercising the einlass admission layer without
// a real provider.
//
// Responses derive from the last user message:
//
//	"count from 1 to 5" -> "1, 2, 3, 4, 5"
//	containing "fail"   -> HTTP 500 with an OpenAI-shaped error body
//	containing "slow"   -> 2s delay before responding
//	anything else       -> echo of the prompt
//
// Configuration:
//
//	MOCK_PORT    - Listen port (default: 9090)
//	MOCK_API_KEY - When set, requests must carry it as a Bearer token
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rhuss/einlass/pkg/provider"
)

func main() {
	port := envOrDefault("MOCK_PORT", "9090")
	apiKey := os.Getenv("MOCK_API_KEY")

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", handleChatCompletions(apiKey))
	mux.HandleFunc("GET /v1/models", handleModels)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	srv := &http.Server{Addr: ":" + port, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock backend starting", "port", port, "auth", apiKey != "")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock backend failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock backend shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

func handleChatCompletions(apiKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if apiKey != "" && r.Header.Get("Authorization") != "Bearer "+apiKey {
			writeError(w, http.StatusUnauthorized, "invalid API key", "invalid_request_error")
			return
		}

		var req provider.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", "invalid_request_error")
			return
		}

		prompt := lastUserMessage(&req)
		lower := strings.ToLower(prompt)

		switch {
		case strings.Contains(lower, "fail"):
			writeError(w, http.StatusInternalServerError, "deliberate upstream failure", "server_error")
			return
		case strings.Contains(lower, "slow"):
			time.Sleep(2 * time.Second)
		}

		text := "You said: " + prompt
		if strings.Contains(lower, "count from 1 to 5") {
			text = "1, 2, 3, 4, 5"
		}

		model := req.Model
		if model == "" {
			model = "mock-model"
		}

		resp := provider.ChatCompletionResponse{
			ID:    "chatcmpl-mock",
			Model: model,
			Choices: []provider.ChatChoice{{
				Index:        0,
				Message:      provider.ChatMessage{Role: "assistant", Content: text},
				FinishReason: "stop",
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func handleModels(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"object": "list",
		"data": []map[string]any{
			{"id": "mock-model", "object": "model", "owned_by": "einlass-mock"},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func writeError(w http.ResponseWriter, status int, message, errType string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(provider.ChatErrorResponse{
		Error: provider.ChatErrorDetail{Message: message, Type: errType},
	})
}

func lastUserMessage(req *provider.ChatCompletionRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			return req.Messages[i].Content
		}
	}
	return ""
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
