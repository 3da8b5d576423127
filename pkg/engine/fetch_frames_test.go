package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"lens-viewer/pkg/backend"
	"lens-viewer/pkg/events"
	"lens-viewer/pkg/testutil"
)

func frames(bounds ...float64) []backend.Frame {
	var out []backend.Frame
	for i := 0; i+1 < len(bounds); i++ {
		out = append(out, backend.Frame{
			Number:     int64(i),
			Start:      bounds[i],
			End:        bounds[i+1],
			DurationNs: int64((bounds[i+1] - bounds[i]) * 1e9),
		})
	}
	return out
}

// frameEngine returns an engine whose window is [1, 4] with the recorder
// cleared.
func frameEngine(t *testing.T, mb *testutil.MockBackend) (*Engine, *testutil.EventRecorder) {
	t.Helper()
	e, rec := newTestEngine(t, mb, testOptions())
	e.SetTimeRangeNoUpdate(1, 4)
	rec.Reset()
	return e, rec
}

func TestFetchFramesCoarseCoversWindow(t *testing.T) {
	mb := testutil.NewMockBackend()
	mb.SetCoarseFrames(frames(0, 2, 4, 6), nil)
	e, rec := frameEngine(t, mb)

	if err := e.FetchFrameTimes(context.Background(), 2.5, 60); err != nil {
		t.Fatalf("FetchFrameTimes failed: %v", err)
	}

	if e.IsDetailed() {
		t.Error("expected non-detailed mode")
	}
	if len(mb.FramesByRangeCalls()) != 0 {
		t.Error("expected no detailed query when coarse frames cover the window")
	}
	assertKinds(t, rec.Kinds(), events.KindFrameDataChanged)
	if got := e.Frames(); len(got) != 3 {
		t.Errorf("expected 3 coarse frames, got %d", len(got))
	}
	if e.FrameFetchState() != FrameFetchSettled {
		t.Errorf("expected settled, got %v", e.FrameFetchState())
	}
}

func TestFetchFramesDetailed(t *testing.T) {
	mb := testutil.NewMockBackend()
	mb.SetCoarseFrames(frames(3, 4.5, 6), nil)
	mb.SetDetailedFrames(frames(1, 1.5, 2, 2.5, 3, 3.5, 4), nil)
	e, rec := frameEngine(t, mb)

	if err := e.FetchFrameTimes(context.Background(), 2.5, 60); err != nil {
		t.Fatalf("FetchFrameTimes failed: %v", err)
	}

	calls := mb.FramesByRangeCalls()
	if len(calls) != 1 || calls[0].Start != 1 || calls[0].End != 4 {
		t.Fatalf("expected one detailed query for [1, 4], got %+v", calls)
	}
	if !e.IsDetailed() {
		t.Error("expected detailed mode")
	}
	if got := e.Frames(); len(got) != 6 {
		t.Errorf("expected detailed frames to be displayed, got %d", len(got))
	}
	if got := e.CoarseFrames(); len(got) != 2 {
		t.Errorf("expected coarse frames to be kept, got %d", len(got))
	}
	assertKinds(t, rec.Kinds(), events.KindFrameDataChanged)
}

func TestFetchFramesEmptyCoarseGoesDetailed(t *testing.T) {
	mb := testutil.NewMockBackend()
	mb.SetCoarseFrames(nil, nil)
	mb.SetDetailedFrames(frames(1, 4), nil)
	e, _ := frameEngine(t, mb)

	if err := e.FetchFrameTimes(context.Background(), 2.5, 60); err != nil {
		t.Fatalf("FetchFrameTimes failed: %v", err)
	}
	if len(mb.FramesByRangeCalls()) != 1 || !e.IsDetailed() {
		t.Error("expected an empty coarse set to trigger the detailed query")
	}
}

func TestFetchFramesDetailedFailureFallsBack(t *testing.T) {
	mb := testutil.NewMockBackend()
	mb.SetCoarseFrames(frames(3, 6), nil)
	mb.SetDetailedFrames(nil, &backend.StatusError{Endpoint: backend.EndpointFramesByRange, Message: "boom"})
	e, rec := frameEngine(t, mb)

	if err := e.FetchFrameTimes(context.Background(), 2.5, 60); err != nil {
		t.Fatalf("detailed failure should fall back silently, got %v", err)
	}
	if e.IsDetailed() {
		t.Error("expected non-detailed mode after fallback")
	}
	if got := e.Frames(); len(got) != 1 || got[0].Start != 3 {
		t.Errorf("expected coarse frames after fallback, got %+v", got)
	}
	assertKinds(t, rec.Kinds(), events.KindFrameDataChanged)
}

func TestFetchFramesCoarseFailure(t *testing.T) {
	mb := testutil.NewMockBackend()
	mb.SetCoarseFrames(frames(0, 6), nil)
	e, rec := frameEngine(t, mb)
	if err := e.FetchFrameTimes(context.Background(), 2.5, 60); err != nil {
		t.Fatalf("FetchFrameTimes failed: %v", err)
	}
	rec.Reset()

	mb.SetCoarseFrames(nil, backend.ErrTransport)
	err := e.FetchFrameTimes(context.Background(), 2.5, 60)
	if !errors.Is(err, backend.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if len(rec.Events()) != 0 {
		t.Errorf("expected no events, got %v", rec.Kinds())
	}
	if len(e.Frames()) != 1 {
		t.Error("expected previous frames to be kept")
	}
	if e.FrameFetchState() != FrameFetchIdle {
		t.Errorf("expected idle after coarse failure, got %v", e.FrameFetchState())
	}
}

func TestFetchFramesLeavesDetailedMode(t *testing.T) {
	mb := testutil.NewMockBackend()
	mb.SetCoarseFrames(frames(3, 6), nil)
	mb.SetDetailedFrames(frames(1, 4), nil)
	e, _ := frameEngine(t, mb)
	if err := e.FetchFrameTimes(context.Background(), 2.5, 60); err != nil {
		t.Fatal(err)
	}
	if !e.IsDetailed() {
		t.Fatal("expected detailed mode")
	}

	mb.SetCoarseFrames(frames(0, 5), nil)
	if err := e.FetchFrameTimes(context.Background(), 2.5, 60); err != nil {
		t.Fatal(err)
	}
	if e.IsDetailed() {
		t.Error("expected coarse mode once coarse frames cover the window")
	}
	if e.DetailedFrames() != nil {
		t.Error("expected detailed frames to be dropped")
	}
}

func TestFetchFramesUsesWindowAtIssue(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	mb := testutil.NewMockBackend()
	mb.FramesByCountFunc = func(ctx context.Context, center float64, count int) ([]backend.Frame, error) {
		started <- struct{}{}
		<-release
		return frames(3, 6), nil
	}
	mb.SetDetailedFrames(frames(1, 4), nil)
	e, _ := frameEngine(t, mb)

	done := make(chan error, 1)
	go func() { done <- e.FetchFrameTimes(context.Background(), 2.5, 60) }()
	<-started

	// Move the window without fetching while the coarse query is in flight.
	e.SetTimeRangeNoUpdate(10, 20)
	close(release)

	if err := <-done; err != nil {
		t.Fatalf("FetchFrameTimes failed: %v", err)
	}
	calls := mb.FramesByRangeCalls()
	if len(calls) != 1 || calls[0].Start != 1 || calls[0].End != 4 {
		t.Errorf("expected detailed query for the window at issue time [1, 4], got %+v", calls)
	}
}

func TestStaleFrameResponseDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan float64, 4)
	mb := testutil.NewMockBackend()
	mb.FramesByCountFunc = func(ctx context.Context, center float64, count int) ([]backend.Frame, error) {
		started <- center
		if center == 1 {
			<-release
			return frames(0, 1, 2, 3, 4, 5), nil
		}
		return frames(0, 5), nil
	}
	e, rec := frameEngine(t, mb)

	slow := make(chan error, 1)
	go func() { slow <- e.FetchFrameTimes(context.Background(), 1, 60) }()
	<-started

	if err := e.FetchFrameTimes(context.Background(), 2, 60); err != nil {
		t.Fatalf("newer fetch failed: %v", err)
	}
	<-started
	close(release)

	if err := <-slow; !errors.Is(err, ErrStaleResponse) {
		t.Fatalf("expected ErrStaleResponse, got %v", err)
	}
	if got := e.Frames(); len(got) != 1 {
		t.Errorf("expected newer single frame to stay applied, got %d frames", len(got))
	}
	if n := rec.Count(events.KindFrameDataChanged); n != 1 {
		t.Errorf("expected one FrameDataChanged, got %d", n)
	}
}

func TestFrameFetchStateString(t *testing.T) {
	tests := map[FrameFetchState]string{
		FrameFetchIdle:     "idle",
		FrameFetchCoarse:   "fetching-coarse",
		FrameFetchDetailed: "fetching-detailed",
		FrameFetchSettled:  "settled",
	}
	for state, want := range tests {
		if state.String() != want {
			t.Errorf("expected %q, got %q", want, state.String())
		}
	}
}

func TestSetTimeRangeDiscardsOlderFrames(t *testing.T) {
	release := make(chan struct{})
	mb := testutil.NewMockBackend()
	mb.FramesByCountFunc = func(ctx context.Context, center float64, count int) ([]backend.Frame, error) {
		if center == 10.5 {
			select {
			case <-release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return frames(center-0.5, center+0.5), nil
	}
	e, rec := newTestEngine(t, mb, testOptions())

	e.SetTimeRange(10, 11)
	e.SetTimeRange(20, 21)
	if !rec.WaitFor(events.KindFrameDataChanged, 1, time.Second) {
		t.Fatal("expected frames for the newer window to be applied")
	}
	close(release)
	e.Wait()

	if got := e.Frames(); len(got) != 1 || got[0].Start != 20 {
		t.Errorf("expected frames for window [20, 21] to survive, got %+v", got)
	}
	if n := rec.Count(events.KindFrameDataChanged); n != 1 {
		t.Errorf("expected one FrameDataChanged, got %d", n)
	}
	if len(mb.FramesByRangeCalls()) != 0 {
		t.Error("expected no detailed query")
	}
}
