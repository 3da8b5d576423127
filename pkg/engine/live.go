package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"lens-viewer/pkg/events"
	"lens-viewer/pkg/poller"
	"lens-viewer/pkg/telemetry"
	"lens-viewer/pkg/timerange"
)

// DataEnd is the latest known end of recorded data. It never decreases.
func (e *Engine) DataEnd() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dataEnd
}

// RefreshEnd queries the data end once and applies it. The end poller calls
// it on every tick.
func (e *Engine) RefreshEnd(ctx context.Context) error {
	e.emitTelemetry(telemetry.NewFetchIssued(telemetry.FetchEnd, 0))
	began := time.Now()
	end, err := e.backend.QueryEnd(ctx)
	e.emitTelemetry(telemetry.NewFetchCompleted(telemetry.FetchEnd, time.Since(began), err == nil))
	if err != nil {
		err = fmt.Errorf("query data end: %w", err)
		e.reportFetchError(err, "end_poll")
		return err
	}
	e.updateEnd(end)
	return nil
}

func (e *Engine) pollEnd(ctx context.Context) {
	_ = e.RefreshEnd(ctx)
}

// updateEnd stores end if it is greater than the current value and fires
// EndChanged. It reports whether the value changed.
func (e *Engine) updateEnd(end float64) bool {
	if math.IsNaN(end) || math.IsInf(end, 0) {
		e.logger.Printf("ignoring invalid data end %v", end)
		return false
	}

	e.mu.Lock()
	prev := e.dataEnd
	if end <= prev {
		e.mu.Unlock()
		if end < prev {
			e.logger.Printf("ignoring data end %g, already at %g", end, prev)
		}
		return false
	}
	e.dataEnd = end
	e.notifier.enqueue(events.EndChanged{End: end})
	e.mu.Unlock()

	e.emitTelemetry(telemetry.NewEndUpdated(end))
	e.notifier.flush()
	return true
}

func (e *Engine) Autoscroll() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.autoscroll
}

// SetAutoscroll turns following the live end on or off. While on, the
// window is moved every AutoscrollInterval so that it ends at DataEnd,
// keeping its width.
func (e *Engine) SetAutoscroll(enabled bool) {
	e.setAutoscroll(enabled, "user")
}

func (e *Engine) setAutoscroll(enabled bool, reason string) {
	e.mu.Lock()
	if e.autoscroll == enabled || (enabled && e.closed) {
		e.mu.Unlock()
		return
	}
	e.autoscroll = enabled

	var started, stopped *poller.Poller
	if enabled {
		started = poller.New("autoscroll", e.opts.AutoscrollInterval, e.autoscrollTick, e.logger)
		e.scroller = started
	} else {
		stopped = e.scroller
		e.scroller = nil
	}
	e.notifier.enqueue(events.AutoscrollChanged{Enabled: enabled})
	e.mu.Unlock()

	if stopped != nil {
		// The caller may be running inside a tick of this poller, so do not
		// wait for it here.
		e.background.Add(1)
		go func() {
			defer e.background.Done()
			stopped.Stop()
		}()
	}
	if started != nil {
		started.Start()
	}

	e.emitTelemetry(telemetry.NewAutoscrollToggled(enabled, reason))
	e.notifier.flush()
}

func (e *Engine) autoscrollTick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	e.mu.RLock()
	enabled := e.autoscroll
	window := e.window
	end := e.dataEnd
	e.mu.RUnlock()

	if !enabled {
		return
	}
	target := timerange.Follow(end, window.Width())
	if target.Equal(window) {
		return
	}
	e.setTimeRange(target)
}
