package engine

import (
	"sync"

	"lens-viewer/pkg/events"
)

// notifier delivers engine events in the order they were queued. Events are
// queued while the state lock is held, right after the change they describe,
// and delivered after it is released so handlers can call back into the
// engine. Whichever goroutine finds the queue idle drains it; a handler that
// triggers further events has them delivered once it returns.
type notifier struct {
	bus *events.Bus

	mu       sync.Mutex
	pending  []events.Event
	flushing bool
}

func (n *notifier) enqueue(evs ...events.Event) {
	n.mu.Lock()
	n.pending = append(n.pending, evs...)
	n.mu.Unlock()
}

func (n *notifier) flush() {
	for {
		n.mu.Lock()
		if n.flushing || len(n.pending) == 0 {
			n.mu.Unlock()
			return
		}
		n.flushing = true
		batch := n.pending
		n.pending = nil
		n.mu.Unlock()

		for _, ev := range batch {
			n.bus.Publish(ev)
		}

		n.mu.Lock()
		n.flushing = false
		n.mu.Unlock()
	}
}
