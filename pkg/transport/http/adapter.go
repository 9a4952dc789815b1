package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhuss/einlass/pkg/api"
	"github.com/rhuss/einlass/pkg/observability"
	"github.com/rhuss/einlass/pkg/pipeline"
	"github.com/rhuss/einlass/pkg/ratelimit"
	"github.com/rhuss/einlass/pkg/transport"
)

// chatPath is the admission-controlled chat endpoint. It is also the
// route label recorded for every dispatch outcome.
const chatPath = "/v1/platform/chat"

// Adapter serves the einlass admission API over HTTP. It routes requests
// to the appropriate handler and serializes decision outcomes.
type Adapter struct {
	dispatcher transport.Dispatcher
	recorder   *observability.Recorder
	mux        *http.ServeMux
	config     Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	Addr            string
	MaxBodySize     int64
	ShutdownTimeout int // seconds

	// Service identifies the deployment on the health and metadata
	// endpoints.
	Service ServiceInfo

	// MetricsPath mounts the Prometheus exposition handler. Empty
	// disables the endpoint; recording itself is always on.
	MetricsPath string
}

// ServiceInfo identifies the deployment and its configured modes.
type ServiceInfo struct {
	Name    string
	Env     string
	Version string
	Modes   ServiceModes
}

// ServiceModes reports which implementation each pluggable concern runs.
type ServiceModes struct {
	Auth      string `json:"auth"`
	RateLimit string `json:"rate_limit"`
	Backend   string `json:"backend"`
	Metrics   string `json:"metrics"`
	Tracing   string `json:"tracing"`
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		MaxBodySize:     1 << 20, // 1 MiB
		ShutdownTimeout: 30,
		MetricsPath:     "/metrics",
	}
}

// NewAdapter creates an HTTP adapter over the given Dispatcher.
// The Recorder is optional; when nil, the observability snapshot endpoint
// reports disabled and dispatch outcomes are not recorded.
// Middleware is applied to the Dispatcher in the given order.
func NewAdapter(dispatcher transport.Dispatcher, recorder *observability.Recorder, cfg Config, middlewares ...transport.Middleware) *Adapter {
	// Apply middleware chain to the dispatcher.
	if len(middlewares) > 0 {
		dispatcher = transport.Chain(middlewares...)(dispatcher)
	}

	a := &Adapter{
		dispatcher: dispatcher,
		recorder:   recorder,
		mux:        http.NewServeMux(),
		config:     cfg,
	}

	a.mux.HandleFunc("POST "+chatPath, a.handleChat)
	a.mux.HandleFunc("GET /healthz", a.handleHealth)
	a.mux.HandleFunc("GET /v1/meta", a.handleMeta)
	a.mux.HandleFunc("GET /v1/platform/ops/observability", a.handleObservability)
	if cfg.MetricsPath != "" {
		a.mux.Handle("GET "+cfg.MetricsPath, promhttp.Handler())
	}

	return a
}

// Handler returns the http.Handler for this adapter. Use this to integrate
// with an http.Server or test with httptest. The returned handler includes
// HTTP-level middleware for request ID propagation and request metrics.
func (a *Adapter) Handler() http.Handler {
	return observability.MetricsMiddleware(httpRequestIDMiddleware(a.mux))
}

// httpRequestIDMiddleware is HTTP-level middleware that propagates the
// X-Request-ID header. If present in the request, it is forwarded to
// the response. After the handler runs, it checks the context for a
// request ID (set by the transport-level RequestID middleware) and adds
// it to the response headers if not already set.
func httpRequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// If client sent X-Request-ID, propagate it into context.
		if id := r.Header.Get("X-Request-ID"); id != "" {
			ctx := transport.ContextWithRequestID(r.Context(), id)
			r = r.WithContext(ctx)
		}
		// Use a response writer wrapper to capture and set the request ID
		// header before the first write.
		rw := &requestIDResponseWriter{ResponseWriter: w, r: r}
		next.ServeHTTP(rw, r)
	})
}

// requestIDResponseWriter wraps http.ResponseWriter to inject the
// X-Request-ID header before the first write.
type requestIDResponseWriter struct {
	http.ResponseWriter
	r           *http.Request
	headersSent bool
}

func (w *requestIDResponseWriter) WriteHeader(statusCode int) {
	w.ensureRequestIDHeader()
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *requestIDResponseWriter) Write(b []byte) (int, error) {
	w.ensureRequestIDHeader()
	return w.ResponseWriter.Write(b)
}

func (w *requestIDResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the underlying ResponseWriter for http.NewResponseController.
func (w *requestIDResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *requestIDResponseWriter) ensureRequestIDHeader() {
	if w.headersSent {
		return
	}
	w.headersSent = true
	if id := transport.RequestIDFromContext(w.r.Context()); id != "" {
		w.ResponseWriter.Header().Set("X-Request-ID", id)
	}
}

// chatEnvelope is the success payload for admitted chat dispatches.
type chatEnvelope struct {
	Status             string            `json:"status"`
	Principal          string            `json:"principal"`
	RateLimitRemaining int               `json:"rate_limit_remaining"`
	Data               *api.ChatResponse `json:"data"`
	DurationMS         float64           `json:"duration_ms"`
}

// handleChat handles POST /v1/platform/chat.
func (a *Adapter) handleChat(w http.ResponseWriter, r *http.Request) {
	// Validate Content-Type.
	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("content_type", "Content-Type must be application/json"),
			http.StatusUnsupportedMediaType,
		)
		return
	}

	// Limit body size.
	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	// Decode request.
	var req api.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return
		}
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("body", "invalid JSON: "+err.Error()),
			http.StatusBadRequest,
		)
		return
	}
	if verr := req.Validate(); verr != nil {
		transport.WriteAPIError(w, verr)
		return
	}

	credential := r.Header.Get("X-API-Key")
	result, err := a.dispatcher.Dispatch(r.Context(), credential, pipeline.ChatRoute, &req)

	// The rate-limit headers reflect the decision on admitted and denied
	// requests alike; a zero decision (rejected before the limiter ran,
	// or limiter fault) carries no headers.
	if result.Decision.Key != "" {
		applyRateLimitHeaders(w, result.Decision)
	}

	durationMS := roundMillis(result.Duration)

	if err != nil {
		var apiErr *api.APIError
		if !errors.As(err, &apiErr) {
			apiErr = api.NewServerError(err.Error())
		}
		status := transport.HTTPStatusFromError(apiErr)
		if apiErr.Type == api.ErrorTypeRateLimited {
			w.Header().Set("Retry-After", strconv.Itoa(apiErr.RetryAfter))
		}
		a.recordChat(status, durationMS, apiErr)
		transport.WriteErrorResponse(w, apiErr, status)
		return
	}

	a.recordChat(http.StatusOK, durationMS, nil)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(chatEnvelope{
		Status:             "ok",
		Principal:          result.Principal.KeyID,
		RateLimitRemaining: result.Decision.Remaining,
		Data:               result.Response,
		DurationMS:         durationMS,
	})
}

// recordChat feeds one dispatch outcome to the recorder and the
// admission counters.
func (a *Adapter) recordChat(status int, durationMS float64, apiErr *api.APIError) {
	if a.recorder != nil {
		a.recorder.Record(chatPath, status, durationMS)
	}
	if apiErr == nil {
		return
	}
	switch apiErr.Type {
	case api.ErrorTypeAuth, api.ErrorTypeInvalidCredential, api.ErrorTypeMissingScopes,
		api.ErrorTypeRateLimited, api.ErrorTypeLimiterUnavailable:
		observability.AdmissionRejectionsTotal.WithLabelValues(string(apiErr.Type)).Inc()
	}
	if apiErr.Type == api.ErrorTypeRateLimited {
		observability.RateLimitRejectedTotal.WithLabelValues(pipeline.ChatRoute.Key).Inc()
	}
}

// applyRateLimitHeaders sets the rate-limit response headers from a decision.
func applyRateLimitHeaders(w http.ResponseWriter, d ratelimit.Decision) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetEpoch, 10))
}

// roundMillis converts a duration to milliseconds with one decimal place.
func roundMillis(d time.Duration) float64 {
	return math.Round(d.Seconds()*10000) / 10
}

// healthResponse is the liveness payload.
type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
	Env     string `json:"env"`
}

// handleHealth handles GET /healthz.
func (a *Adapter) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(healthResponse{
		Status:  "ok",
		Service: a.config.Service.Name,
		Version: a.config.Service.Version,
		Env:     a.config.Service.Env,
	})
}

// metaResponse describes the deployment and its configured modes.
type metaResponse struct {
	Service string       `json:"service"`
	Env     string       `json:"env"`
	Version string       `json:"version"`
	Modes   ServiceModes `json:"modes"`
}

// handleMeta handles GET /v1/meta.
func (a *Adapter) handleMeta(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(metaResponse{
		Service: a.config.Service.Name,
		Env:     a.config.Service.Env,
		Version: a.config.Service.Version,
		Modes:   a.config.Service.Modes,
	})
}

// observabilitySnapshot is the operational state of the monitoring setup.
type observabilitySnapshot struct {
	Status           string `json:"status"`
	MetricsMode      string `json:"metrics_mode"`
	TracingMode      string `json:"tracing_mode"`
	AlertsMode       string `json:"alerts_mode"`
	RecentEventCount int    `json:"recent_event_count"`
}

// handleObservability handles GET /v1/platform/ops/observability.
func (a *Adapter) handleObservability(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if a.recorder == nil {
		json.NewEncoder(w).Encode(map[string]string{"status": "disabled"})
		return
	}
	json.NewEncoder(w).Encode(observabilitySnapshot{
		Status:           "ok",
		MetricsMode:      a.recorder.MetricsMode,
		TracingMode:      a.recorder.TracingMode,
		AlertsMode:       a.recorder.AlertsMode,
		RecentEventCount: a.recorder.RecentEventCount(),
	})
}
