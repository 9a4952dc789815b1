package api

import (
	"fmt"
	"strings"
)

// ErrorType represents the category of an API error. Every type maps to
// exactly one HTTP status code in the transport layer.
type ErrorType string

const (
	ErrorTypeAuth               ErrorType = "auth_error"
	ErrorTypeInvalidCredential  ErrorType = "invalid_credential"
	ErrorTypeMissingScopes      ErrorType = "missing_scopes"
	ErrorTypeRateLimited        ErrorType = "rate_limited"
	ErrorTypeLimiterUnavailable ErrorType = "limiter_unavailable"
	ErrorTypeProvider           ErrorType = "provider_error"
	ErrorTypeNotImplemented     ErrorType = "not_implemented"
	ErrorTypeInvalidRequest     ErrorType = "invalid_request"
	ErrorTypeServerError        ErrorType = "server_error"
)

// APIError represents a structured, classified error. Besides type and
// message it carries the decision metadata clients need to react: the
// scopes missing from a denied principal, or the limit and retry delay
// of a rate-limit rejection.
type APIError struct {
	Type          ErrorType `json:"type"`
	Param         string    `json:"param,omitempty"`
	Message       string    `json:"message"`
	MissingScopes []string  `json:"missing_scopes,omitempty"`
	Limit         int       `json:"limit,omitempty"`
	RetryAfter    int       `json:"retry_after,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (param: %s)", e.Type, e.Message, e.Param)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorResponse wraps an APIError for JSON serialization as the top-level
// error response.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// NewAuthError creates an APIError for a structurally broken credential
// (missing header, no key/secret delimiter).
func NewAuthError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeAuth,
		Message: message,
	}
}

// NewInvalidCredentialError creates the APIError returned for every failed
// credential verification. The message is deliberately uniform: it never
// reveals whether the key was unknown, disabled, or had a wrong secret.
func NewInvalidCredentialError() *APIError {
	return &APIError{
		Type:    ErrorTypeInvalidCredential,
		Message: "invalid API key credentials",
	}
}

// NewMissingScopesError creates an APIError listing exactly the scopes the
// principal lacks for the attempted operation.
func NewMissingScopesError(missing []string) *APIError {
	return &APIError{
		Type:          ErrorTypeMissingScopes,
		Message:       fmt.Sprintf("missing required scopes: %s", strings.Join(missing, ", ")),
		MissingScopes: missing,
	}
}

// NewRateLimitedError creates an APIError for a denied rate-limit check,
// carrying the configured limit and the seconds until the window resets.
func NewRateLimitedError(limit, retryAfter int) *APIError {
	return &APIError{
		Type:       ErrorTypeRateLimited,
		Message:    "rate limit exceeded",
		Limit:      limit,
		RetryAfter: retryAfter,
	}
}

// NewLimiterUnavailableError creates an APIError for a limiter that is
// configured but not operational. A broken limiter fails closed.
func NewLimiterUnavailableError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeLimiterUnavailable,
		Message: message,
	}
}

// NewProviderError creates an APIError for backend adapter failures
// (transport errors, upstream error statuses, unparseable replies).
func NewProviderError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeProvider,
		Message: message,
	}
}

// NewNotImplementedError creates an APIError for a selected backend mode
// that has no working implementation.
func NewNotImplementedError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeNotImplemented,
		Message: message,
	}
}

// NewInvalidRequestError creates an APIError for invalid request parameters.
func NewInvalidRequestError(param, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeInvalidRequest,
		Param:   param,
		Message: message,
	}
}

// NewServerError creates an APIError for internal server errors.
func NewServerError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeServerError,
		Message: message,
	}
}
