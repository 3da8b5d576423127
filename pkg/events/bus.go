package events

import "sync"

type Handler func(Event)

type subscription struct {
	id uint64
	fn Handler
}

// Bus delivers events synchronously on the publishing goroutine, in
// subscription order. Handlers may subscribe or unsubscribe while being
// invoked; the change applies from the next Publish.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[Kind][]subscription
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Kind][]subscription)}
}

// Subscribe registers fn for kind and returns a function that removes it.
// Calling the returned function more than once is harmless.
func (b *Bus) Subscribe(kind Kind, fn Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[kind] = append(b.subs[kind], subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(kind, id) })
	}
}

func (b *Bus) remove(kind Kind, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.subs[kind]
	for i, s := range list {
		if s.id == id {
			next := make([]subscription, 0, len(list)-1)
			next = append(next, list[:i]...)
			next = append(next, list[i+1:]...)
			b.subs[kind] = next
			return
		}
	}
}

func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	list := b.subs[ev.Kind()]
	b.mu.Unlock()

	for _, s := range list {
		s.fn(ev)
	}
}

// Subscribers reports how many handlers are registered for kind.
func (b *Bus) Subscribers(kind Kind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[kind])
}
