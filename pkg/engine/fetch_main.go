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
)

// FetchMainData loads zones and heap samples for [start, end] (the end is
// padded by the prefetch factor) and swaps them in. Threads seen for the
// first time get a NewThread event before MainDataChanged. On error nothing
// changes and no event fires.
func (e *Engine) FetchMainData(ctx context.Context, start, end float64) error {
	_, err := e.fetchMainResult(ctx, e.mainGen.next(), start, end)
	return err
}

// fetchMainResult runs one request numbered gen, which the issuer must take
// from mainGen before handing the request to another goroutine. It also
// reports whether the applied response was empty, which bootstrap needs.
func (e *Engine) fetchMainResult(ctx context.Context, gen uint64, start, end float64) (empty bool, err error) {
	queryEnd := end * e.opts.PrefetchFactor

	ctx, span := e.tracer.Start(ctx, "engine.FetchMainData",
		trace.WithAttributes(
			attribute.Float64("start", start),
			attribute.Float64("end", queryEnd),
			attribute.Int64("generation", int64(gen)),
		),
	)
	defer span.End()

	e.emitTelemetry(telemetry.NewFetchIssued(telemetry.FetchMain, gen))
	began := time.Now()
	res, err := e.backend.QueryPlots(ctx, start, queryEnd)
	e.emitTelemetry(telemetry.NewFetchCompleted(telemetry.FetchMain, time.Since(began), err == nil))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		err = fmt.Errorf("fetch main data [%g, %g]: %w", start, queryEnd, err)
		e.reportFetchError(err, "fetch_main")
		return false, err
	}

	if !e.applyMain(gen, res) {
		e.emitTelemetry(telemetry.NewStaleResponseDiscarded(telemetry.FetchMain, gen))
		span.SetAttributes(attribute.Bool("stale", true))
		return false, fmt.Errorf("fetch main data [%g, %g]: %w", start, queryEnd, ErrStaleResponse)
	}

	span.SetAttributes(
		attribute.Int("zones", len(res.Zones)),
		attribute.Int("heap_samples", len(res.Plots)),
	)
	e.notifier.flush()
	return res.Empty(), nil
}

// applyMain swaps in a plots response. It returns false if the response is
// stale. Events are queued, not delivered.
func (e *Engine) applyMain(gen uint64, res *backend.PlotsResult) bool {
	// Interned strings only ever grow, so merging a response that turns out
	// to be stale is harmless.
	e.zoneNames.Merge(res.Strings)
	e.threadNames.Merge(res.ThreadNames)

	zones := make(map[int32][]backend.Zone)
	var discovered []int32
	seen := make(map[int32]struct{})
	for _, z := range res.Zones {
		if _, ok := seen[z.ThreadID]; !ok {
			seen[z.ThreadID] = struct{}{}
			discovered = append(discovered, z.ThreadID)
		}
		zones[z.ThreadID] = append(zones[z.ThreadID], z)
	}
	heap := append([]backend.HeapSample(nil), res.Plots...)

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.mainGen.admit(gen, e.opts.Ordering) {
		return false
	}

	var newThreads []int32
	for _, id := range discovered {
		if _, ok := e.known[id]; !ok {
			e.known[id] = struct{}{}
			newThreads = append(newThreads, id)
		}
	}
	// Every known thread has an entry, empty when absent from this response.
	for id := range e.known {
		if _, ok := zones[id]; !ok {
			zones[id] = []backend.Zone{}
		}
	}

	e.zones = zones
	e.heap = heap

	for _, id := range newThreads {
		e.notifier.enqueue(events.NewThread{ThreadID: id})
		e.emitTelemetry(telemetry.NewThreadDiscovered(id))
	}
	e.notifier.enqueue(events.MainDataChanged{})
	return true
}
