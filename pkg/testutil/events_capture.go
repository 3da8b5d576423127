package testutil

import (
	"sync"
	"time"

	"lens-viewer/pkg/events"
)

var allKinds = []events.Kind{
	events.KindFrameDataChanged,
	events.KindMainDataChanged,
	events.KindTimeRangeChanged,
	events.KindEndChanged,
	events.KindNewThread,
	events.KindAutoscrollChanged,
	events.KindLoadingChanged,
}

// EventRecorder subscribes to every event kind on a bus and keeps them in
// delivery order.
type EventRecorder struct {
	mu     sync.Mutex
	events []events.Event
	unsubs []func()
}

func NewEventRecorder(bus *events.Bus) *EventRecorder {
	r := &EventRecorder{}
	for _, kind := range allKinds {
		r.unsubs = append(r.unsubs, bus.Subscribe(kind, r.record))
	}
	return r
}

func (r *EventRecorder) record(ev events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *EventRecorder) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

func (r *EventRecorder) Kinds() []events.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]events.Kind, len(r.events))
	for i, ev := range r.events {
		kinds[i] = ev.Kind()
	}
	return kinds
}

func (r *EventRecorder) Count(kind events.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Kind() == kind {
			n++
		}
	}
	return n
}

func (r *EventRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// WaitFor polls until at least n events of kind were recorded or timeout
// passes, and reports whether the count was reached.
func (r *EventRecorder) WaitFor(kind events.Kind, n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if r.Count(kind) >= n {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func (r *EventRecorder) Close() {
	for _, unsub := range r.unsubs {
		unsub()
	}
}
