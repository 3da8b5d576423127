package engine

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"lens-viewer/pkg/backend"
	"lens-viewer/pkg/events"
	"lens-viewer/pkg/telemetry"
	"lens-viewer/pkg/timerange"
)

type FrameFetchState int

const (
	FrameFetchIdle FrameFetchState = iota
	FrameFetchCoarse
	FrameFetchDetailed
	FrameFetchSettled
)

func (s FrameFetchState) String() string {
	switch s {
	case FrameFetchIdle:
		return "idle"
	case FrameFetchCoarse:
		return "fetching-coarse"
	case FrameFetchDetailed:
		return "fetching-detailed"
	case FrameFetchSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// FetchFrameTimes loads count frames around center. When they do not span
// the whole current window, frames for exactly the window are requested as
// well and shown instead; if that second request fails the coarse frames
// are used. FrameDataChanged fires once when the coarse request succeeded.
func (e *Engine) FetchFrameTimes(ctx context.Context, center float64, count int) error {
	_, err := e.fetchFrames(ctx, e.frameGen.next(), e.TimeRange(), center, count)
	return err
}

// fetchFrames runs attempt gen against the window captured when it was
// issued and returns how many coarse frames that attempt applied. gen is
// taken from frameGen by the issuer.
func (e *Engine) fetchFrames(ctx context.Context, gen uint64, window timerange.TimeRange, center float64, count int) (int, error) {
	ctx, span := e.tracer.Start(ctx, "engine.FetchFrameTimes",
		trace.WithAttributes(
			attribute.Float64("center", center),
			attribute.Int("count", count),
			attribute.Int64("generation", int64(gen)),
		),
	)
	defer span.End()

	e.setFrameState(gen, FrameFetchCoarse)
	coarse, err := e.queryFrames(ctx, telemetry.FetchFramesCoarse, gen, func(ctx context.Context) ([]backend.Frame, error) {
		return e.backend.QueryFramesByCount(ctx, center, count)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.setFrameState(gen, FrameFetchIdle)
		err = fmt.Errorf("fetch frames around %g: %w", center, err)
		e.reportFetchError(err, "fetch_frames_coarse")
		return 0, err
	}

	var detailed []backend.Frame
	useDetailed := false
	if !coversWindow(coarse, window) {
		if e.superseded(gen) {
			return 0, e.discardFrames(gen, span)
		}
		e.setFrameState(gen, FrameFetchDetailed)
		detailed, err = e.queryFrames(ctx, telemetry.FetchFramesDetailed, gen, func(ctx context.Context) ([]backend.Frame, error) {
			return e.backend.QueryFramesByRange(ctx, window.Min, window.Max)
		})
		if err != nil {
			// Fall back to the coarse frames.
			e.reportFetchError(fmt.Errorf("fetch frames [%g, %g]: %w", window.Min, window.Max, err), "fetch_frames_detailed")
			detailed = nil
		} else {
			useDetailed = true
		}
	}

	if !e.applyFrames(gen, coarse, detailed, useDetailed) {
		return 0, e.discardFrames(gen, span)
	}
	span.SetAttributes(
		attribute.Int("coarse_frames", len(coarse)),
		attribute.Int("detailed_frames", len(detailed)),
		attribute.Bool("detailed", useDetailed),
	)
	e.notifier.flush()
	return len(coarse), nil
}

func (e *Engine) queryFrames(ctx context.Context, kind telemetry.FetchKind, gen uint64, query func(context.Context) ([]backend.Frame, error)) ([]backend.Frame, error) {
	e.emitTelemetry(telemetry.NewFetchIssued(kind, gen))
	began := time.Now()
	frames, err := query(ctx)
	e.emitTelemetry(telemetry.NewFetchCompleted(kind, time.Since(began), err == nil))
	return frames, err
}

func (e *Engine) discardFrames(gen uint64, span trace.Span) error {
	e.emitTelemetry(telemetry.NewStaleResponseDiscarded(telemetry.FetchFramesCoarse, gen))
	span.SetAttributes(attribute.Bool("stale", true))
	return fmt.Errorf("fetch frames: %w", ErrStaleResponse)
}

// coversWindow reports whether frames, in time order, span all of window.
// An empty set covers nothing.
func coversWindow(frames []backend.Frame, window timerange.TimeRange) bool {
	if len(frames) == 0 {
		return false
	}
	return window.Covers(frames[0].Start, frames[len(frames)-1].End)
}

// superseded reports whether a newer frame attempt has already been applied,
// making a detailed request for gen pointless.
func (e *Engine) superseded(gen uint64) bool {
	if e.opts.Ordering != OrderGeneration {
		return false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return gen < e.frameGen.applied
}

func (e *Engine) applyFrames(gen uint64, coarse, detailed []backend.Frame, useDetailed bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.frameGen.admit(gen, e.opts.Ordering) {
		return false
	}

	modeChanged := e.isDetailed != useDetailed
	e.coarse = coarse
	e.detailed = detailed
	e.isDetailed = useDetailed
	e.setFrameStateLocked(gen, FrameFetchSettled)

	e.notifier.enqueue(events.FrameDataChanged{})
	if modeChanged {
		e.emitTelemetry(telemetry.NewFrameModeChanged(useDetailed))
	}
	return true
}

// FrameFetchState reports the progress of the most recently issued frame
// fetch.
func (e *Engine) FrameFetchState() FrameFetchState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.frameState
}

func (e *Engine) setFrameState(gen uint64, state FrameFetchState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setFrameStateLocked(gen, state)
}

// Only the latest attempt drives the visible state.
func (e *Engine) setFrameStateLocked(gen uint64, state FrameFetchState) {
	if gen == e.frameGen.latest() {
		e.frameState = state
	}
}
