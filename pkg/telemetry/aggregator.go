package telemetry

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Clock interface allows for deterministic testing
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Config for telemetry settings
type Config struct {
	BufferSize        int
	MaxRecentErrors   int
	RateWindowSeconds int
	LatencySamples    int
}

func DefaultConfig() Config {
	return Config{
		BufferSize:        1000,
		MaxRecentErrors:   50,
		RateWindowSeconds: 10,
		LatencySamples:    100,
	}
}

// Aggregator is the core stateful component that processes telemetry events
type Aggregator struct {
	mu    sync.RWMutex
	clock Clock
	cfg   Config

	// Core counters
	fetchesIssued    uint64
	fetchesCompleted uint64
	fetchesFailed    uint64
	staleDiscarded   uint64
	errorsTotal      uint64
	dropped          uint64

	// Breakdown
	fetchesByKind    map[FetchKind]uint64
	staleByKind      map[FetchKind]uint64
	errorsByType     map[string]uint64
	errorsBySeverity map[ErrorSeverity]uint64

	// Ring buffer for rate calculations
	completionTimes []time.Time

	// Current viewer state
	windowMin    float64
	windowMax    float64
	dataEnd      float64
	autoscroll   bool
	detailed     bool
	threadsKnown int

	recentErrors []string
	errorIndex   int

	latencies    []time.Duration
	latencyIndex int

	eventCh  chan TelemetryEvent
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	startTime time.Time
}

// NewAggregator creates a new telemetry aggregator
func NewAggregator(clock Clock, cfg Config) *Aggregator {
	if clock == nil {
		clock = RealClock{}
	}
	def := DefaultConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.MaxRecentErrors <= 0 {
		cfg.MaxRecentErrors = def.MaxRecentErrors
	}
	if cfg.RateWindowSeconds <= 0 {
		cfg.RateWindowSeconds = def.RateWindowSeconds
	}
	if cfg.LatencySamples <= 0 {
		cfg.LatencySamples = def.LatencySamples
	}

	return &Aggregator{
		clock:            clock,
		cfg:              cfg,
		fetchesByKind:    make(map[FetchKind]uint64),
		staleByKind:      make(map[FetchKind]uint64),
		errorsByType:     make(map[string]uint64),
		errorsBySeverity: make(map[ErrorSeverity]uint64),
		completionTimes:  make([]time.Time, 0, cfg.RateWindowSeconds*10),
		recentErrors:     make([]string, cfg.MaxRecentErrors),
		latencies:        make([]time.Duration, cfg.LatencySamples),
		eventCh:          make(chan TelemetryEvent, cfg.BufferSize),
		done:             make(chan struct{}),
		startTime:        clock.Now(),
	}
}

// Start begins processing telemetry events
func (a *Aggregator) Start(ctx context.Context) {
	a.wg.Add(1)
	go a.processEvents(ctx)
}

// Stop shuts down the aggregator. Safe to call more than once.
func (a *Aggregator) Stop() {
	a.stopOnce.Do(func() {
		close(a.done)
		a.wg.Wait()
	})
}

// Publish implements TelemetryPublisher. It never blocks; events are
// dropped when the buffer is full.
func (a *Aggregator) Publish(event TelemetryEvent) {
	select {
	case a.eventCh <- event:
	default:
		telemetryDroppedTotal.Inc()
		a.mu.Lock()
		a.dropped++
		a.mu.Unlock()
	}
}

// Snapshot implements TelemetryReader interface
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	now := a.clock.Now()
	avgLatency, p95Latency := a.calculateLatencyMetrics()

	byKind := make(map[FetchKind]uint64, len(a.fetchesByKind))
	for k, v := range a.fetchesByKind {
		byKind[k] = v
	}
	staleByKind := make(map[FetchKind]uint64, len(a.staleByKind))
	for k, v := range a.staleByKind {
		staleByKind[k] = v
	}
	errorsByType := make(map[string]uint64, len(a.errorsByType))
	for k, v := range a.errorsByType {
		errorsByType[k] = v
	}
	errorsBySeverity := make(map[ErrorSeverity]uint64, len(a.errorsBySeverity))
	for k, v := range a.errorsBySeverity {
		errorsBySeverity[k] = v
	}

	// Most recent first
	recentErrors := make([]string, 0)
	for i := 0; i < len(a.recentErrors); i++ {
		idx := (a.errorIndex - i - 1 + len(a.recentErrors)) % len(a.recentErrors)
		if a.recentErrors[idx] != "" {
			recentErrors = append(recentErrors, a.recentErrors[idx])
		}
	}

	return Snapshot{
		FetchesIssued:      a.fetchesIssued,
		FetchesCompleted:   a.fetchesCompleted,
		FetchesFailed:      a.fetchesFailed,
		StaleDiscarded:     a.staleDiscarded,
		ErrorsTotal:        a.errorsTotal,
		Dropped:            a.dropped,
		FetchesByKind:      byKind,
		StaleByKind:        staleByKind,
		WindowMin:          a.windowMin,
		WindowMax:          a.windowMax,
		DataEnd:            a.dataEnd,
		Autoscroll:         a.autoscroll,
		Detailed:           a.detailed,
		ThreadsKnown:       a.threadsKnown,
		FetchesPerSecond:   a.calculateRate(a.completionTimes, now),
		AvgLatencyMs:       avgLatency,
		P95LatencyMs:       p95Latency,
		UptimeSeconds:      now.Sub(a.startTime).Seconds(),
		ChannelUtilization: float64(len(a.eventCh)) / float64(cap(a.eventCh)) * 100,
		ErrorsByType:       errorsByType,
		ErrorsBySeverity:   errorsBySeverity,
		RecentErrors:       recentErrors,
	}
}

func (a *Aggregator) processEvents(ctx context.Context) {
	defer a.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.done:
			return
		case event := <-a.eventCh:
			a.handleEvent(event)
		}
	}
}

func (a *Aggregator) handleEvent(event TelemetryEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()

	switch e := event.(type) {
	case FetchIssued:
		a.fetchesIssued++
		a.fetchesByKind[e.Kind]++

	case FetchCompleted:
		if e.Success {
			a.fetchesCompleted++
			a.addCompletionTime(now)
			a.addLatency(e.Latency)
		} else {
			a.fetchesFailed++
		}
		fetchTotal.WithLabelValues(string(e.Kind), resultLabel(e.Success)).Inc()
		fetchDuration.WithLabelValues(string(e.Kind)).Observe(e.Latency.Seconds())

	case StaleResponseDiscarded:
		a.staleDiscarded++
		a.staleByKind[e.Kind]++
		staleResponsesTotal.WithLabelValues(string(e.Kind)).Inc()

	case WindowChanged:
		a.windowMin = e.Min
		a.windowMax = e.Max

	case EndUpdated:
		a.dataEnd = e.End
		dataEndGauge.Set(e.End)

	case AutoscrollToggled:
		a.autoscroll = e.Enabled

	case FrameModeChanged:
		a.detailed = e.Detailed

	case ThreadDiscovered:
		a.threadsKnown++
		threadsKnownGauge.Inc()

	case EngineError:
		a.errorsTotal++
		a.errorsByType[e.Context]++
		a.errorsBySeverity[e.Severity]++
		if e.Err != nil {
			a.addRecentError(e.Context + ": " + e.Err.Error())
		}
		engineErrorsTotal.WithLabelValues(e.Context).Inc()
	}
}

func (a *Aggregator) addCompletionTime(t time.Time) {
	cutoff := t.Add(-time.Duration(a.cfg.RateWindowSeconds) * time.Second)

	for len(a.completionTimes) > 0 && a.completionTimes[0].Before(cutoff) {
		a.completionTimes = a.completionTimes[1:]
	}

	a.completionTimes = append(a.completionTimes, t)
}

func (a *Aggregator) addLatency(latency time.Duration) {
	a.latencies[a.latencyIndex] = latency
	a.latencyIndex = (a.latencyIndex + 1) % len(a.latencies)
}

func (a *Aggregator) addRecentError(err string) {
	a.recentErrors[a.errorIndex] = err
	a.errorIndex = (a.errorIndex + 1) % len(a.recentErrors)
}

func (a *Aggregator) calculateRate(times []time.Time, now time.Time) float64 {
	if len(times) == 0 {
		return 0.0
	}

	cutoff := now.Add(-time.Duration(a.cfg.RateWindowSeconds) * time.Second)
	count := 0
	for _, t := range times {
		if t.After(cutoff) {
			count++
		}
	}

	return float64(count) / float64(a.cfg.RateWindowSeconds)
}

func (a *Aggregator) calculateLatencyMetrics() (float64, float64) {
	valid := make([]time.Duration, 0, len(a.latencies))
	for _, lat := range a.latencies {
		if lat > 0 {
			valid = append(valid, lat)
		}
	}

	if len(valid) == 0 {
		return 0.0, 0.0
	}

	var sum time.Duration
	for _, lat := range valid {
		sum += lat
	}
	avg := float64(sum) / float64(len(valid)) / float64(time.Millisecond)

	sort.Slice(valid, func(i, j int) bool { return valid[i] < valid[j] })
	p95Index := int(float64(len(valid)) * 0.95)
	if p95Index >= len(valid) {
		p95Index = len(valid) - 1
	}
	p95 := float64(valid[p95Index]) / float64(time.Millisecond)

	return avg, p95
}
