// Package events is the fixed set of notifications the engine emits and the
// bus that delivers them.
package events

type Kind int

const (
	KindFrameDataChanged Kind = iota
	KindMainDataChanged
	KindTimeRangeChanged
	KindEndChanged
	KindNewThread
	KindAutoscrollChanged
	KindLoadingChanged
)

func (k Kind) String() string {
	switch k {
	case KindFrameDataChanged:
		return "FrameDataChanged"
	case KindMainDataChanged:
		return "MainDataChanged"
	case KindTimeRangeChanged:
		return "TimeRangeChanged"
	case KindEndChanged:
		return "EndChanged"
	case KindNewThread:
		return "NewThread"
	case KindAutoscrollChanged:
		return "AutoscrollChanged"
	case KindLoadingChanged:
		return "LoadingChanged"
	default:
		return "Unknown"
	}
}

type Event interface {
	Kind() Kind
}

// FrameDataChanged fires after a frame fetch attempt has applied its result.
type FrameDataChanged struct{}

// MainDataChanged fires after a zone/heap snapshot has been swapped in.
type MainDataChanged struct{}

type TimeRangeChanged struct {
	Min, Max float64
}

type EndChanged struct {
	End float64
}

// NewThread fires once per thread id, before the MainDataChanged of the
// snapshot that introduced it.
type NewThread struct {
	ThreadID int32
}

type AutoscrollChanged struct {
	Enabled bool
}

type LoadingChanged struct {
	Loading bool
}

func (FrameDataChanged) Kind() Kind  { return KindFrameDataChanged }
func (MainDataChanged) Kind() Kind   { return KindMainDataChanged }
func (TimeRangeChanged) Kind() Kind  { return KindTimeRangeChanged }
func (EndChanged) Kind() Kind        { return KindEndChanged }
func (NewThread) Kind() Kind         { return KindNewThread }
func (AutoscrollChanged) Kind() Kind { return KindAutoscrollChanged }
func (LoadingChanged) Kind() Kind    { return KindLoadingChanged }
