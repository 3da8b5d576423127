package engine

import (
	"context"

	"lens-viewer/pkg/events"
	"lens-viewer/pkg/telemetry"
	"lens-viewer/pkg/timerange"
)

// SetTimeRange moves the window to [min, max], starts fetching zones, heap
// samples and frames for it, and fires TimeRangeChanged. The range is not
// clamped to the data; an invalid range is logged and ignored.
func (e *Engine) SetTimeRange(min, max float64) {
	r, ok := e.validRange(min, max)
	if !ok {
		return
	}
	e.setTimeRange(r)
}

func (e *Engine) setTimeRange(r timerange.TimeRange) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.window = r
	// Requests are numbered with the window write, so generation order
	// matches window order whatever order the goroutines below start in.
	mainGen := e.mainGen.next()
	frameGen := e.frameGen.next()
	e.notifier.enqueue(events.TimeRangeChanged{Min: r.Min, Max: r.Max})
	e.mu.Unlock()

	center := (r.Min + r.Max) / 2
	e.launch(func(ctx context.Context) {
		_, _ = e.fetchMainResult(ctx, mainGen, r.Min, r.Max)
	})
	e.launch(func(ctx context.Context) {
		_, _ = e.fetchFrames(ctx, frameGen, r, center, e.opts.FrameCount)
	})

	e.emitTelemetry(telemetry.NewWindowChanged(r.Min, r.Max))
	e.notifier.flush()
}

// SetTimeRangeNoUpdate moves the window without fetching and fires
// TimeRangeChanged, FrameDataChanged and MainDataChanged so observers redraw
// from the data already held.
func (e *Engine) SetTimeRangeNoUpdate(min, max float64) {
	r, ok := e.validRange(min, max)
	if !ok {
		return
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.window = r
	e.notifier.enqueue(
		events.TimeRangeChanged{Min: r.Min, Max: r.Max},
		events.FrameDataChanged{},
		events.MainDataChanged{},
	)
	e.mu.Unlock()

	e.emitTelemetry(telemetry.NewWindowChanged(r.Min, r.Max))
	e.notifier.flush()
}

// ScrollTo moves the window to start at t, keeping its width.
func (e *Engine) ScrollTo(t float64) {
	r := e.TimeRange().ScrollTo(t)
	e.SetTimeRange(r.Min, r.Max)
}

// UserSetTimeRange is SetTimeRange for user gestures: it turns autoscroll
// off first so the window is not pulled back to the live end.
func (e *Engine) UserSetTimeRange(min, max float64) {
	if _, ok := e.validRange(min, max); !ok {
		return
	}
	e.setAutoscroll(false, "gesture")
	e.SetTimeRange(min, max)
}

func (e *Engine) UserScrollTo(t float64) {
	e.setAutoscroll(false, "gesture")
	e.ScrollTo(t)
}

func (e *Engine) TimeRange() timerange.TimeRange {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.window
}

// RemapTime maps t to [0, 1] across the current window. The window must
// have non-zero width.
func (e *Engine) RemapTime(t float64) float64 {
	return e.TimeRange().Remap(t)
}

func (e *Engine) validRange(min, max float64) (timerange.TimeRange, bool) {
	r, err := timerange.New(min, max)
	if err != nil {
		e.logger.Printf("rejecting time range [%v, %v]: %v", min, max, err)
		e.emitTelemetryErrorSev(err, "set_time_range", telemetry.ErrorSeverityInfo)
		return timerange.TimeRange{}, false
	}
	return r, true
}
