package telemetry

type Snapshot struct {
	// Core counters
	FetchesIssued    uint64
	FetchesCompleted uint64
	FetchesFailed    uint64
	StaleDiscarded   uint64
	ErrorsTotal      uint64
	Dropped          uint64
	FetchesByKind    map[FetchKind]uint64
	StaleByKind      map[FetchKind]uint64

	// Viewer state
	WindowMin    float64
	WindowMax    float64
	DataEnd      float64
	Autoscroll   bool
	Detailed     bool
	ThreadsKnown int

	// Rate and latency
	FetchesPerSecond float64
	AvgLatencyMs     float64
	P95LatencyMs     float64

	// System metrics
	UptimeSeconds      float64
	ChannelUtilization float64

	// Error breakdown
	ErrorsByType     map[string]uint64
	ErrorsBySeverity map[ErrorSeverity]uint64
	RecentErrors     []string
}

type TelemetryReader interface {
	Snapshot() Snapshot
}
