package engine

import "sync/atomic"

// generation numbers requests of one kind in issue order. applied is the
// newest generation whose response was swapped in and is guarded by the
// engine's state lock.
type generation struct {
	issued  atomic.Uint64
	applied uint64
}

func (g *generation) next() uint64 {
	return g.issued.Add(1)
}

func (g *generation) latest() uint64 {
	return g.issued.Load()
}

// admit reports whether a response for gen may be applied, and records it
// if so. Caller holds the state lock.
func (g *generation) admit(gen uint64, ordering Ordering) bool {
	if ordering == OrderGeneration && gen < g.applied {
		return false
	}
	if gen > g.applied {
		g.applied = gen
	}
	return true
}
