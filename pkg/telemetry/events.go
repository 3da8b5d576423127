package telemetry

import "time"

type TelemetryEvent interface {
	Timestamp() time.Time // When the event occurred
	EventType() string    // For categorization/filtering
}

// FetchKind names one of the backend queries the engine issues.
type FetchKind string

const (
	FetchMain           FetchKind = "main"
	FetchFramesCoarse   FetchKind = "frames_coarse"
	FetchFramesDetailed FetchKind = "frames_detailed"
	FetchEnd            FetchKind = "end"
	FetchInfo           FetchKind = "info"
)

type FetchIssued struct {
	timestamp  time.Time
	Kind       FetchKind
	Generation uint64
}

func (e FetchIssued) Timestamp() time.Time { return e.timestamp }
func (e FetchIssued) EventType() string    { return "fetch_issued" }

func NewFetchIssued(kind FetchKind, generation uint64) FetchIssued {
	return FetchIssued{
		timestamp:  time.Now(),
		Kind:       kind,
		Generation: generation,
	}
}

type FetchCompleted struct {
	timestamp time.Time
	Kind      FetchKind
	Latency   time.Duration // Time from issue to response
	Success   bool
}

func (e FetchCompleted) Timestamp() time.Time { return e.timestamp }
func (e FetchCompleted) EventType() string    { return "fetch_completed" }

func NewFetchCompleted(kind FetchKind, latency time.Duration, success bool) FetchCompleted {
	return FetchCompleted{
		timestamp: time.Now(),
		Kind:      kind,
		Latency:   latency,
		Success:   success,
	}
}

// StaleResponseDiscarded is reported when a response arrives after a newer
// one of the same kind has already been applied.
type StaleResponseDiscarded struct {
	timestamp  time.Time
	Kind       FetchKind
	Generation uint64
}

func (e StaleResponseDiscarded) Timestamp() time.Time { return e.timestamp }
func (e StaleResponseDiscarded) EventType() string    { return "stale_response_discarded" }

func NewStaleResponseDiscarded(kind FetchKind, generation uint64) StaleResponseDiscarded {
	return StaleResponseDiscarded{
		timestamp:  time.Now(),
		Kind:       kind,
		Generation: generation,
	}
}

type WindowChanged struct {
	timestamp time.Time
	Min       float64
	Max       float64
}

func (e WindowChanged) Timestamp() time.Time { return e.timestamp }
func (e WindowChanged) EventType() string    { return "window_changed" }

func NewWindowChanged(min, max float64) WindowChanged {
	return WindowChanged{timestamp: time.Now(), Min: min, Max: max}
}

type EndUpdated struct {
	timestamp time.Time
	End       float64
}

func (e EndUpdated) Timestamp() time.Time { return e.timestamp }
func (e EndUpdated) EventType() string    { return "end_updated" }

func NewEndUpdated(end float64) EndUpdated {
	return EndUpdated{timestamp: time.Now(), End: end}
}

type AutoscrollToggled struct {
	timestamp time.Time
	Enabled   bool
	Reason    string // "user", "config", "gesture"
}

func (e AutoscrollToggled) Timestamp() time.Time { return e.timestamp }
func (e AutoscrollToggled) EventType() string    { return "autoscroll_toggled" }

func NewAutoscrollToggled(enabled bool, reason string) AutoscrollToggled {
	return AutoscrollToggled{timestamp: time.Now(), Enabled: enabled, Reason: reason}
}

type FrameModeChanged struct {
	timestamp time.Time
	Detailed  bool
}

func (e FrameModeChanged) Timestamp() time.Time { return e.timestamp }
func (e FrameModeChanged) EventType() string    { return "frame_mode_changed" }

func NewFrameModeChanged(detailed bool) FrameModeChanged {
	return FrameModeChanged{timestamp: time.Now(), Detailed: detailed}
}

type ThreadDiscovered struct {
	timestamp time.Time
	ThreadID  int32
}

func (e ThreadDiscovered) Timestamp() time.Time { return e.timestamp }
func (e ThreadDiscovered) EventType() string    { return "thread_discovered" }

func NewThreadDiscovered(threadID int32) ThreadDiscovered {
	return ThreadDiscovered{timestamp: time.Now(), ThreadID: threadID}
}

type EngineError struct {
	timestamp time.Time
	Err       error
	Context   string // e.g. "fetch_main", "end_poll", "bootstrap"
	Severity  ErrorSeverity
}

func (e EngineError) Timestamp() time.Time { return e.timestamp }
func (e EngineError) EventType() string    { return "engine_error" }

func NewEngineError(err error, context string, severity ErrorSeverity) EngineError {
	return EngineError{
		timestamp: time.Now(),
		Err:       err,
		Context:   context,
		Severity:  severity,
	}
}

type ErrorSeverity int

const (
	ErrorSeverityInfo ErrorSeverity = iota
	ErrorSeverityWarning
	ErrorSeverityError
	ErrorSeverityCritical
)

func (s ErrorSeverity) String() string {
	switch s {
	case ErrorSeverityInfo:
		return "info"
	case ErrorSeverityWarning:
		return "warning"
	case ErrorSeverityError:
		return "error"
	case ErrorSeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

type TelemetryPublisher interface {
	// Publish sends a telemetry event to the aggregator.
	// This is a non-blocking, fire-and-forget call.
	Publish(event TelemetryEvent)
}
