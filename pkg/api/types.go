package api

// ChatRequest is a client prompt submitted for dispatch to the configured
// backend adapter.
type ChatRequest struct {
	Prompt         string `json:"prompt"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// Validate checks the request for structural validity. It returns an
// *APIError describing the first validation failure, or nil if the request
// is valid.
func (r *ChatRequest) Validate() *APIError {
	if r.Prompt == "" {
		return NewInvalidRequestError("prompt", "prompt is required")
	}
	return nil
}

// ChatResponse is the backend adapter output returned to the client as the
// data section of the success envelope.
type ChatResponse struct {
	Output       string `json:"output"`
	Model        string `json:"model"`
	Provider     string `json:"provider"`
	FinishReason string `json:"finish_reason"`
}
