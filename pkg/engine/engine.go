// Package engine keeps the viewer's window state and the data loaded for it,
// fetches from the trace server as the window moves, and notifies observers
// through an events.Bus.
package engine

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"lens-viewer/pkg/backend"
	"lens-viewer/pkg/events"
	"lens-viewer/pkg/intern"
	"lens-viewer/pkg/poller"
	"lens-viewer/pkg/telemetry"
	"lens-viewer/pkg/timerange"
)

// SupportedRestProtocol is the server REST protocol major.minor this engine
// was written against.
const SupportedRestProtocol = "0.1"

var (
	// ErrStaleResponse is returned when a response is dropped because a newer
	// one of the same kind was applied first.
	ErrStaleResponse = errors.New("stale response")

	ErrAlreadyStarted = errors.New("engine already started")
)

type Engine struct {
	opts      Options
	backend   backend.Backend
	logger    *log.Logger
	bus       *events.Bus
	tracer    trace.Tracer
	sessionID string

	zoneNames   *intern.Table
	threadNames *intern.Table

	mu         sync.RWMutex
	window     timerange.TimeRange
	dataEnd    float64
	coarse     []backend.Frame
	detailed   []backend.Frame
	isDetailed bool
	zones      map[int32][]backend.Zone
	heap       []backend.HeapSample
	known      map[int32]struct{}
	frameState FrameFetchState
	autoscroll bool
	scroller   *poller.Poller
	closed     bool

	mainGen  generation
	frameGen generation

	notifier notifier

	endPoller *poller.Poller

	// Engine lifetime; cancelled by Close so in-flight requests abort.
	ctx    context.Context
	cancel context.CancelFunc

	inflight   sync.WaitGroup // fetches started by window operations
	background sync.WaitGroup // bootstrap and poller shutdowns
	started    atomic.Bool
	closeOnce  sync.Once

	// Internal event channel for telemetry
	telemetryCh chan telemetry.TelemetryEvent
}

// New creates an engine over b. A nil logger discards output and a nil
// publisher drops telemetry.
func New(opts Options, logger *log.Logger, b backend.Backend, telemetryPublisher telemetry.TelemetryPublisher) *Engine {
	opts.withDefaults()
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if telemetryPublisher == nil {
		telemetryPublisher = telemetry.NewNoopPublisher()
	}
	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		opts:        opts,
		backend:     b,
		logger:      logger,
		bus:         events.NewBus(),
		tracer:      otel.Tracer("lens-viewer/engine"),
		sessionID:   opts.SessionID,
		zoneNames:   intern.NewTable(),
		threadNames: intern.NewTable(),
		window:      opts.InitialRange,
		zones:       make(map[int32][]backend.Zone),
		known:       make(map[int32]struct{}),
		ctx:         ctx,
		cancel:      cancel,
		telemetryCh: make(chan telemetry.TelemetryEvent, 256),
	}
	e.notifier.bus = e.bus

	e.endPoller = poller.New("end", opts.EndPollInterval, e.pollEnd, logger)
	e.startTelemetryPublisher(telemetryPublisher)
	return e
}

func (e *Engine) SessionID() string { return e.sessionID }

func (e *Engine) Options() Options { return e.opts }

// Events returns the bus observers subscribe to.
func (e *Engine) Events() *events.Bus { return e.bus }

// Start checks the server version, starts live-end polling and loads the
// initial window in the background. It may be called once.
func (e *Engine) Start(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	e.checkServer(ctx)
	e.endPoller.Start()

	if e.opts.Autoscroll {
		e.setAutoscroll(true, "config")
	}

	e.background.Add(1)
	go func() {
		defer e.background.Done()
		if err := e.Bootstrap(e.ctx); err != nil && !errors.Is(err, context.Canceled) {
			e.logger.Printf("bootstrap ended: %v", err)
		}
	}()
	return nil
}

func (e *Engine) checkServer(ctx context.Context) {
	info, err := e.backend.Info(ctx)
	if err != nil {
		e.logger.Printf("server info unavailable: %v", err)
		e.emitTelemetryErrorSev(err, "server_info", telemetry.ErrorSeverityWarning)
		return
	}
	e.logger.Printf("connected to server %s (rest protocol %s, session %s)", info.Version, info.RestProtocolVersion, e.sessionID)
	if info.Motd != "" {
		e.logger.Printf("server motd: %s", info.Motd)
	}
	if !compatibleProtocol(info.RestProtocolVersion) {
		e.logger.Printf("warning: server rest protocol %q, expected %s.x", info.RestProtocolVersion, SupportedRestProtocol)
	}
}

func compatibleProtocol(version string) bool {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return false
	}
	return parts[0]+"."+parts[1] == SupportedRestProtocol
}

// Wait blocks until every fetch launched by a window operation so far has
// finished and its notifications have been delivered.
func (e *Engine) Wait() {
	e.inflight.Wait()
}

// Close stops polling and autoscroll, cancels in-flight requests and waits
// for them. Safe to call more than once.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.cancel()

		e.mu.Lock()
		e.closed = true
		scroller := e.scroller
		e.scroller = nil
		e.mu.Unlock()

		e.endPoller.Stop()
		if scroller != nil {
			scroller.Stop()
		}
		e.background.Wait()
		e.inflight.Wait()
	})
}

// launch runs fn in a tracked goroutine unless the engine is closed.
func (e *Engine) launch(fn func(ctx context.Context)) {
	if e.ctx.Err() != nil {
		return
	}
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		fn(e.ctx)
	}()
}

// startTelemetryPublisher forwards queued telemetry to publisher until the
// engine is closed, then drains what is left.
func (e *Engine) startTelemetryPublisher(publisher telemetry.TelemetryPublisher) {
	go func() {
		for {
			select {
			case event := <-e.telemetryCh:
				publisher.Publish(event)
			case <-e.ctx.Done():
				for {
					select {
					case event := <-e.telemetryCh:
						publisher.Publish(event)
					default:
						return
					}
				}
			}
		}
	}()
}

// emitTelemetry sends an event to the internal channel (non-blocking)
func (e *Engine) emitTelemetry(event telemetry.TelemetryEvent) {
	select {
	case e.telemetryCh <- event:
	default:
		// Channel full, drop event to avoid blocking
	}
}

func (e *Engine) emitTelemetryErrorSev(err error, where string, sev telemetry.ErrorSeverity) {
	e.emitTelemetry(telemetry.NewEngineError(err, where, sev))
}

// reportFetchError logs a failed request unless it failed because the
// engine is shutting down.
func (e *Engine) reportFetchError(err error, where string) {
	if e.ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return
	}
	e.logger.Printf("%s failed: %v", where, err)
	e.emitTelemetryErrorSev(err, where, telemetry.ErrorSeverityWarning)
}
