package observability

import (
	"sync"
	"time"
)

// recentEventLimit bounds the recorder's ring of recent requests.
const recentEventLimit = 200

// RequestEvent is one recorded request outcome.
type RequestEvent struct {
	Route      string    `json:"route"`
	StatusCode int       `json:"status_code"`
	DurationMS float64   `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// Recorder keeps a bounded ring of recent request outcomes for the
// operational snapshot endpoint, alongside the mode labels reported
// there. Prometheus metrics are global; the recorder only holds what
// the snapshot needs.
type Recorder struct {
	MetricsMode string
	TracingMode string
	AlertsMode  string

	mu     sync.Mutex
	events []RequestEvent
}

// NewRecorder creates a recorder reporting the given modes.
func NewRecorder(metricsMode, tracingMode, alertsMode string) *Recorder {
	return &Recorder{
		MetricsMode: metricsMode,
		TracingMode: tracingMode,
		AlertsMode:  alertsMode,
	}
}

// Record appends one request outcome, dropping the oldest entry once
// the ring is full.
func (r *Recorder) Record(route string, statusCode int, durationMS float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, RequestEvent{
		Route:      route,
		StatusCode: statusCode,
		DurationMS: durationMS,
		Timestamp:  time.Now(),
	})
	if len(r.events) > recentEventLimit {
		r.events = r.events[1:]
	}
}

// RecentEvents returns a copy of the recorded events, oldest first.
func (r *Recorder) RecentEvents() []RequestEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]RequestEvent, len(r.events))
	copy(out, r.events)
	return out
}

// RecentEventCount returns the number of retained events.
func (r *Recorder) RecentEventCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}
