package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rhuss/einlass/pkg/api"
	"github.com/rhuss/einlass/pkg/debug"
	"github.com/rhuss/einlass/pkg/secrets"
)

// maxResponseBytes caps how much of a backend response body is read.
const maxResponseBytes = 1 << 20

// OpenAI performs chat completions against an OpenAI-compatible backend.
// The API key is resolved through the secret bundle on every call, so a
// rotated key takes effect without a restart.
type OpenAI struct {
	httpClient *http.Client
	ownsClient bool
	baseURL    string
	model      string
	secretName string
	secrets    *secrets.Bundle
}

// Ensure OpenAI implements Provider at compile time.
var _ Provider = (*OpenAI)(nil)

// NewOpenAI creates an adapter for an OpenAI-compatible backend. A
// client supplied through the config is borrowed; otherwise the adapter
// constructs and owns one bounded by the configured timeout.
func NewOpenAI(cfg Config, secret *secrets.Bundle) *OpenAI {
	client := cfg.HTTPClient
	owns := false
	if client == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{
			Timeout: timeout,
		}
		owns = true
	}

	return &OpenAI{
		httpClient: client,
		ownsClient: owns,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		secretName: cfg.APIKeySecret,
		secrets:    secret,
	}
}

// Name implements Provider.
func (o *OpenAI) Name() string { return "openai" }

// Chat implements Provider.
func (o *OpenAI) Chat(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
	key, err := o.secrets.Get(o.secretName)
	if err != nil {
		return nil, api.NewProviderError(fmt.Sprintf("backend credential unavailable: %s", err.Error()))
	}

	chatReq := ChatCompletionRequest{
		Model:    o.model,
		Messages: []ChatMessage{{Role: "user", Content: req.Prompt}},
	}
	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to marshal backend request: %s", err.Error()))
	}

	url := o.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+key)

	debug.Log("provider", "chat request", "url", url, "model", chatReq.Model,
		"prompt", debug.Truncate(req.Prompt, 120))

	httpResp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, api.NewProviderError(fmt.Sprintf("backend connection error: %s", err.Error()))
	}
	defer httpResp.Body.Close()

	debug.Log("provider", "chat response", "status", httpResp.StatusCode)

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, mapBackendError(httpResp)
	}

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, api.NewProviderError(fmt.Sprintf("failed to read backend response: %s", err.Error()))
	}
	if debug.TraceIsEnabled("provider") {
		debug.Raw("provider", string(data))
	}

	var chatResp ChatCompletionResponse
	if err := json.Unmarshal(data, &chatResp); err != nil {
		return nil, api.NewProviderError(fmt.Sprintf("failed to parse backend response: %s", err.Error()))
	}

	return o.translateResponse(&chatResp)
}

// Close implements Provider. Borrowed clients are left untouched.
func (o *OpenAI) Close() error {
	if o.ownsClient {
		o.httpClient.CloseIdleConnections()
	}
	return nil
}

// translateResponse converts a Chat Completions response into the chat
// response shape. The first choice wins; a missing finish reason
// defaults to "stop".
func (o *OpenAI) translateResponse(resp *ChatCompletionResponse) (*api.ChatResponse, error) {
	if len(resp.Choices) == 0 {
		return nil, api.NewProviderError("backend returned no choices")
	}

	choice := resp.Choices[0]
	model := resp.Model
	if model == "" {
		model = o.model
	}
	finish := choice.FinishReason
	if finish == "" {
		finish = "stop"
	}

	return &api.ChatResponse{
		Output:       choice.Message.Content,
		Model:        model,
		Provider:     "openai",
		FinishReason: finish,
	}, nil
}

// mapBackendError converts a non-2xx backend response into a provider
// error. The body is parsed for the OpenAI error shape to extract a
// descriptive message.
func mapBackendError(resp *http.Response) *api.APIError {
	message := extractErrorMessage(resp.Body)
	if message == "" {
		return api.NewProviderError(fmt.Sprintf("backend error (HTTP %d)", resp.StatusCode))
	}
	return api.NewProviderError(fmt.Sprintf("backend error (HTTP %d): %s", resp.StatusCode, message))
}

// extractErrorMessage tries to parse the response body as a
// ChatErrorResponse and returns the error message if found.
func extractErrorMessage(body io.Reader) string {
	if body == nil {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}

	var errResp ChatErrorResponse
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}

	return ""
}
