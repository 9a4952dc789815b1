package observability

import (
	"fmt"
	"sync"
	"testing"
)

func TestRecorderKeepsRecentEvents(t *testing.T) {
	r := NewRecorder("prometheus", "disabled", "disabled")

	r.Record("/v1/platform/chat", 200, 12.5)
	r.Record("/v1/platform/chat", 429, 0.4)

	events := r.RecentEvents()
	if len(events) != 2 {
		t.Fatalf("RecentEvents() len = %d, want 2", len(events))
	}
	if events[0].Route != "/v1/platform/chat" || events[0].StatusCode != 200 {
		t.Errorf("first event = %+v, want 200 on /v1/platform/chat", events[0])
	}
	if events[1].StatusCode != 429 {
		t.Errorf("second event status = %d, want 429", events[1].StatusCode)
	}
	if events[0].Timestamp.IsZero() {
		t.Error("event timestamp is zero, want recorded time")
	}
}

func TestRecorderBoundsRing(t *testing.T) {
	r := NewRecorder("prometheus", "disabled", "disabled")

	for i := 0; i < recentEventLimit+25; i++ {
		r.Record(fmt.Sprintf("/route-%d", i), 200, 1.0)
	}

	if got := r.RecentEventCount(); got != recentEventLimit {
		t.Fatalf("RecentEventCount() = %d, want %d", got, recentEventLimit)
	}

	// The oldest entries were dropped.
	events := r.RecentEvents()
	if events[0].Route != "/route-25" {
		t.Errorf("oldest retained route = %q, want %q", events[0].Route, "/route-25")
	}
	if events[len(events)-1].Route != fmt.Sprintf("/route-%d", recentEventLimit+24) {
		t.Errorf("newest retained route = %q, want %q", events[len(events)-1].Route, fmt.Sprintf("/route-%d", recentEventLimit+24))
	}
}

func TestRecorderSnapshotIsCopy(t *testing.T) {
	r := NewRecorder("log", "disabled", "disabled")
	r.Record("/healthz", 200, 0.1)

	events := r.RecentEvents()
	events[0].Route = "mutated"

	if got := r.RecentEvents()[0].Route; got != "/healthz" {
		t.Errorf("stored route = %q, want %q after mutating snapshot", got, "/healthz")
	}
}

func TestRecorderConcurrentRecord(t *testing.T) {
	r := NewRecorder("prometheus", "disabled", "disabled")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				r.Record("/v1/platform/chat", 200, 1.0)
			}
		}()
	}
	wg.Wait()

	if got := r.RecentEventCount(); got != recentEventLimit {
		t.Errorf("RecentEventCount() = %d, want %d", got, recentEventLimit)
	}
}
