package engine

import (
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"lens-viewer/pkg/backend"
	"lens-viewer/pkg/events"
	"lens-viewer/pkg/intern"
	"lens-viewer/pkg/timerange"
)

// Snapshot is a consistent copy of everything the engine holds.
type Snapshot struct {
	SessionID      string
	Window         timerange.TimeRange
	DataEnd        float64
	Autoscroll     bool
	Detailed       bool
	FrameState     FrameFetchState
	Frames         []backend.Frame
	CoarseFrames   []backend.Frame
	DetailedFrames []backend.Frame
	Threads        []int32
	Zones          map[int32][]backend.Zone
	Heap           []backend.HeapSample
	ZoneNames      map[int32]string
	ThreadNames    map[int32]string
}

// ZoneName resolves a zone name id.
func (s *Snapshot) ZoneName(id int32) string {
	if name, ok := s.ZoneNames[id]; ok {
		return name
	}
	return intern.Placeholder
}

func (s *Snapshot) ThreadName(id int32) string {
	if name, ok := s.ThreadNames[id]; ok {
		return name
	}
	return intern.Placeholder
}

func (e *Engine) Snapshot() Snapshot {
	// Names first: they are merged before each swap, so every id referenced
	// by the state read below is already present.
	zoneNames := e.zoneNames.Snapshot()
	threadNames := e.threadNames.Snapshot()

	e.mu.RLock()
	defer e.mu.RUnlock()

	zones := make(map[int32][]backend.Zone, len(e.zones))
	for id, list := range e.zones {
		zones[id] = append([]backend.Zone{}, list...)
	}

	return Snapshot{
		SessionID:      e.sessionID,
		Window:         e.window,
		DataEnd:        e.dataEnd,
		Autoscroll:     e.autoscroll,
		Detailed:       e.isDetailed,
		FrameState:     e.frameState,
		Frames:         copyFrames(e.framesLocked()),
		CoarseFrames:   copyFrames(e.coarse),
		DetailedFrames: copyFrames(e.detailed),
		Threads:        e.threadsLocked(),
		Zones:          zones,
		Heap:           append([]backend.HeapSample(nil), e.heap...),
		ZoneNames:      zoneNames,
		ThreadNames:    threadNames,
	}
}

// Frames returns the frames to display: the detailed set in detailed mode,
// otherwise the coarse set.
func (e *Engine) Frames() []backend.Frame {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return copyFrames(e.framesLocked())
}

func (e *Engine) framesLocked() []backend.Frame {
	if e.isDetailed {
		return e.detailed
	}
	return e.coarse
}

func (e *Engine) CoarseFrames() []backend.Frame {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return copyFrames(e.coarse)
}

func (e *Engine) DetailedFrames() []backend.Frame {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return copyFrames(e.detailed)
}

func (e *Engine) IsDetailed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.isDetailed
}

// Threads returns every thread id seen so far, ascending.
func (e *Engine) Threads() []int32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.threadsLocked()
}

func (e *Engine) threadsLocked() []int32 {
	ids := make([]int32, 0, len(e.zones))
	for id := range e.zones {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ThreadZones returns the zones of one thread in the current snapshot. A
// known thread with no zones in the window yields an empty slice and true.
func (e *Engine) ThreadZones(id int32) ([]backend.Zone, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	list, ok := e.zones[id]
	if !ok {
		return nil, false
	}
	return append([]backend.Zone{}, list...), true
}

func (e *Engine) HeapSamples() []backend.HeapSample {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]backend.HeapSample(nil), e.heap...)
}

func (e *Engine) ZoneName(id int32) (string, bool)   { return e.zoneNames.Resolve(id) }
func (e *Engine) ThreadName(id int32) (string, bool) { return e.threadNames.Resolve(id) }

func (e *Engine) ZoneNameOr(id int32, fallback string) string {
	return e.zoneNames.ResolveOr(id, fallback)
}

func (e *Engine) ThreadNameOr(id int32, fallback string) string {
	return e.threadNames.ResolveOr(id, fallback)
}

// VisibleThreads returns Threads without those whose name matches one of
// the hidden patterns. Threads without a name yet are matched as "???".
func (e *Engine) VisibleThreads() []int32 {
	ids := e.Threads()
	if len(e.opts.HiddenThreads) == 0 {
		return ids
	}
	out := ids[:0]
	for _, id := range ids {
		if !e.hidden(e.ThreadNameOr(id, intern.Placeholder)) {
			out = append(out, id)
		}
	}
	return out
}

func (e *Engine) hidden(name string) bool {
	for _, pattern := range e.opts.HiddenThreads {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

func copyFrames(frames []backend.Frame) []backend.Frame {
	if frames == nil {
		return nil
	}
	return append([]backend.Frame{}, frames...)
}

// Typed subscription helpers. Each returns a function that unsubscribes.

func (e *Engine) OnFrameDataChanged(fn func()) func() {
	return e.bus.Subscribe(events.KindFrameDataChanged, func(events.Event) { fn() })
}

func (e *Engine) OnMainDataChanged(fn func()) func() {
	return e.bus.Subscribe(events.KindMainDataChanged, func(events.Event) { fn() })
}

func (e *Engine) OnTimeRangeChanged(fn func(r timerange.TimeRange)) func() {
	return e.bus.Subscribe(events.KindTimeRangeChanged, func(ev events.Event) {
		tr := ev.(events.TimeRangeChanged)
		fn(timerange.TimeRange{Min: tr.Min, Max: tr.Max})
	})
}

func (e *Engine) OnEndChanged(fn func(end float64)) func() {
	return e.bus.Subscribe(events.KindEndChanged, func(ev events.Event) {
		fn(ev.(events.EndChanged).End)
	})
}

func (e *Engine) OnNewThread(fn func(threadID int32)) func() {
	return e.bus.Subscribe(events.KindNewThread, func(ev events.Event) {
		fn(ev.(events.NewThread).ThreadID)
	})
}

func (e *Engine) OnAutoscrollChanged(fn func(enabled bool)) func() {
	return e.bus.Subscribe(events.KindAutoscrollChanged, func(ev events.Event) {
		fn(ev.(events.AutoscrollChanged).Enabled)
	})
}

func (e *Engine) OnLoadingChanged(fn func(loading bool)) func() {
	return e.bus.Subscribe(events.KindLoadingChanged, func(ev events.Event) {
		fn(ev.(events.LoadingChanged).Loading)
	})
}
