package engine

import (
	"fmt"
	"time"

	"lens-viewer/pkg/config"
	"lens-viewer/pkg/timerange"
)

// Ordering selects how responses that complete out of order are handled.
type Ordering int

const (
	// OrderGeneration drops a response when a newer one of the same kind has
	// already been applied.
	OrderGeneration Ordering = iota
	// OrderArrival applies every response as it completes; the last to
	// arrive wins.
	OrderArrival
)

func (o Ordering) String() string {
	if o == OrderArrival {
		return config.OrderingArrival
	}
	return config.OrderingGeneration
}

func ParseOrdering(s string) (Ordering, error) {
	switch s {
	case config.OrderingGeneration, "":
		return OrderGeneration, nil
	case config.OrderingArrival:
		return OrderArrival, nil
	default:
		return OrderGeneration, fmt.Errorf("unknown response ordering %q", s)
	}
}

type Options struct {
	InitialRange timerange.TimeRange

	FrameCount     int
	PrefetchFactor float64
	Ordering       Ordering

	EndPollInterval    time.Duration
	BootstrapRetry     time.Duration
	AutoscrollInterval time.Duration

	// Autoscroll enables following the live end on Start.
	Autoscroll bool

	// HiddenThreads are doublestar patterns; matching thread names are left
	// out of VisibleThreads.
	HiddenThreads []string

	// SessionID tags log lines and requests. Generated when empty.
	SessionID string
}

func DefaultOptions() Options {
	return Options{
		InitialRange:       timerange.TimeRange{Min: config.DefaultInitialMin, Max: config.DefaultInitialMin + config.DefaultInitialWidth},
		FrameCount:         config.DefaultFrameCount,
		PrefetchFactor:     config.DefaultPrefetchFactor,
		Ordering:           OrderGeneration,
		EndPollInterval:    config.DefaultEndPollMs * time.Millisecond,
		BootstrapRetry:     config.DefaultBootstrapRetryMs * time.Millisecond,
		AutoscrollInterval: config.DefaultAutoscrollMs * time.Millisecond,
	}
}

// OptionsFromConfig maps a validated Config onto engine options.
func OptionsFromConfig(cfg *config.Config, sessionID string) (Options, error) {
	ordering, err := ParseOrdering(cfg.Fetch.ResponseOrdering)
	if err != nil {
		return Options{}, err
	}
	initial, err := timerange.New(cfg.Window.InitialMin, cfg.Window.InitialMin+cfg.Window.InitialWidth)
	if err != nil {
		return Options{}, fmt.Errorf("initial window: %w", err)
	}
	return Options{
		InitialRange:       initial,
		FrameCount:         cfg.Fetch.FrameCount,
		PrefetchFactor:     cfg.Fetch.PrefetchFactor,
		Ordering:           ordering,
		EndPollInterval:    cfg.Polling.EndPoll,
		BootstrapRetry:     cfg.Polling.BootstrapRetry,
		AutoscrollInterval: cfg.Polling.Autoscroll,
		Autoscroll:         cfg.Window.Autoscroll,
		HiddenThreads:      append([]string(nil), cfg.HiddenThreads...),
		SessionID:          sessionID,
	}, nil
}

func (o *Options) withDefaults() {
	def := DefaultOptions()
	if o.FrameCount <= 0 {
		o.FrameCount = def.FrameCount
	}
	if o.PrefetchFactor <= 0 {
		o.PrefetchFactor = def.PrefetchFactor
	}
	if o.EndPollInterval <= 0 {
		o.EndPollInterval = def.EndPollInterval
	}
	if o.BootstrapRetry <= 0 {
		o.BootstrapRetry = def.BootstrapRetry
	}
	if o.AutoscrollInterval <= 0 {
		o.AutoscrollInterval = def.AutoscrollInterval
	}
	if o.InitialRange.Validate() != nil || o.InitialRange.Width() <= 0 {
		o.InitialRange = def.InitialRange
	}
}
