package provider

// Chat Completions request/response types for the OpenAI-compatible
// backend. These mirror the subset of the Chat Completions API the
// adapter uses.

// ChatCompletionRequest is the request body for /chat/completions.
type ChatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

// ChatMessage represents a message in the Chat Completions format.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionResponse is the non-streaming response from
// /chat/completions.
type ChatCompletionResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
}

// ChatChoice represents one completion choice.
type ChatChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// ChatErrorResponse is the error body returned by OpenAI-compatible
// backends.
type ChatErrorResponse struct {
	Error ChatErrorDetail `json:"error"`
}

// ChatErrorDetail holds the error message and type from the backend.
type ChatErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}
