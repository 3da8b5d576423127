package engine

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"lens-viewer/pkg/backend"
	"lens-viewer/pkg/events"
	"lens-viewer/pkg/testutil"
)

func createTestLogger() *log.Logger {
	return log.New(os.Stdout, "[TEST] ", 0)
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.EndPollInterval = 5 * time.Millisecond
	opts.BootstrapRetry = 5 * time.Millisecond
	opts.AutoscrollInterval = 5 * time.Millisecond
	return opts
}

func newTestEngine(t *testing.T, mb *testutil.MockBackend, opts Options) (*Engine, *testutil.EventRecorder) {
	t.Helper()
	e := New(opts, createTestLogger(), mb, nil)
	rec := testutil.NewEventRecorder(e.Events())
	t.Cleanup(e.Close)
	return e, rec
}

func assertKinds(t *testing.T, got []events.Kind, want ...events.Kind) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected events %v, got %v", want, got)
		}
	}
}

// syncBuffer is a bytes.Buffer safe for use as a logger sink across goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestInitialWindow(t *testing.T) {
	e, _ := newTestEngine(t, testutil.NewMockBackend(), testOptions())

	w := e.TimeRange()
	if w.Min != 0.25 || w.Max != 0.25+0.05 {
		t.Errorf("expected initial window [0.25, 0.30], got [%v, %v]", w.Min, w.Max)
	}
	if e.DataEnd() != 0 {
		t.Errorf("expected DataEnd 0, got %v", e.DataEnd())
	}
	if e.SessionID() == "" {
		t.Error("expected a generated session id")
	}
}

func TestRemapTime(t *testing.T) {
	e, _ := newTestEngine(t, testutil.NewMockBackend(), testOptions())
	e.SetTimeRangeNoUpdate(1, 3)

	tests := []struct {
		t    float64
		want float64
	}{
		{1, 0},
		{2, 0.5},
		{3, 1},
		{0, -0.5},
	}
	for _, tt := range tests {
		if got := e.RemapTime(tt.t); got != tt.want {
			t.Errorf("RemapTime(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestSetTimeRangeNoUpdate(t *testing.T) {
	mb := testutil.NewMockBackend()
	e, rec := newTestEngine(t, mb, testOptions())

	e.SetTimeRangeNoUpdate(2, 5)

	assertKinds(t, rec.Kinds(), events.KindTimeRangeChanged, events.KindFrameDataChanged, events.KindMainDataChanged)
	if tr := rec.Events()[0].(events.TimeRangeChanged); tr.Min != 2 || tr.Max != 5 {
		t.Errorf("unexpected TimeRangeChanged payload %+v", tr)
	}
	if len(mb.PlotsCalls()) != 0 || len(mb.FramesByCountCalls()) != 0 {
		t.Error("SetTimeRangeNoUpdate must not query the backend")
	}
}

func TestSetTimeRangeFetches(t *testing.T) {
	mb := testutil.NewMockBackend()
	e, rec := newTestEngine(t, mb, testOptions())

	e.SetTimeRange(1, 4)
	e.Wait()

	if kinds := rec.Kinds(); len(kinds) == 0 || kinds[0] != events.KindTimeRangeChanged {
		t.Fatalf("expected TimeRangeChanged first, got %v", kinds)
	}
	plots := mb.PlotsCalls()
	if len(plots) != 1 || plots[0].Start != 1 || plots[0].End != 4*e.Options().PrefetchFactor {
		t.Errorf("expected one plots query for [1, %v], got %+v", 4*e.Options().PrefetchFactor, plots)
	}
	frames := mb.FramesByCountCalls()
	if len(frames) != 1 || frames[0].Center != 2.5 || frames[0].Count != 60 {
		t.Errorf("expected one frame query centered at 2.5 for 60 frames, got %+v", frames)
	}
	if w := e.TimeRange(); w.Min != 1 || w.Max != 4 {
		t.Errorf("expected window [1, 4], got %+v", w)
	}
}

func TestSetTimeRangeDoesNotClamp(t *testing.T) {
	e, _ := newTestEngine(t, testutil.NewMockBackend(), testOptions())

	e.SetTimeRangeNoUpdate(-5, 1000)
	if w := e.TimeRange(); w.Min != -5 || w.Max != 1000 {
		t.Errorf("expected range to be stored as given, got %+v", w)
	}
}

func TestSetTimeRangeRejectsInvalid(t *testing.T) {
	mb := testutil.NewMockBackend()
	e, rec := newTestEngine(t, mb, testOptions())
	before := e.TimeRange()

	e.SetTimeRange(5, 1)
	e.SetTimeRangeNoUpdate(5, 1)
	e.UserSetTimeRange(5, 1)
	e.Wait()

	if len(rec.Events()) != 0 {
		t.Errorf("expected no events for invalid ranges, got %v", rec.Kinds())
	}
	if !e.TimeRange().Equal(before) {
		t.Errorf("window changed on invalid input: %+v", e.TimeRange())
	}
	if len(mb.PlotsCalls()) != 0 {
		t.Error("invalid range must not be fetched")
	}
}

func TestScrollTo(t *testing.T) {
	mb := testutil.NewMockBackend()
	e, _ := newTestEngine(t, mb, testOptions())
	e.SetTimeRangeNoUpdate(1, 3)

	e.ScrollTo(10)
	e.Wait()

	if w := e.TimeRange(); w.Min != 10 || w.Max != 12 {
		t.Errorf("expected [10, 12], got %+v", w)
	}
	if len(mb.PlotsCalls()) != 1 {
		t.Errorf("expected ScrollTo to fetch, got %d plots calls", len(mb.PlotsCalls()))
	}
}

func TestStartAndClose(t *testing.T) {
	mb := testutil.NewMockBackend()
	mb.SetEnd(3, nil)
	var logs syncBuffer
	mb.SetInfo(&backend.ServerInfo{Version: "9.9.9", RestProtocolVersion: "0.2.0", Motd: "hello"}, nil)

	e := New(testOptions(), log.New(&logs, "", 0), mb, nil)
	rec := testutil.NewEventRecorder(e.Events())

	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := e.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}

	if !rec.WaitFor(events.KindEndChanged, 1, time.Second) {
		t.Fatal("expected end poller to report the data end")
	}
	if e.DataEnd() != 3 {
		t.Errorf("expected DataEnd 3, got %v", e.DataEnd())
	}
	if !rec.WaitFor(events.KindLoadingChanged, 1, time.Second) {
		t.Fatal("expected bootstrap to start")
	}

	e.Close()
	e.Close()

	if mb.InfoCalls() != 1 {
		t.Errorf("expected one info call, got %d", mb.InfoCalls())
	}
	if !strings.Contains(logs.String(), "warning: server rest protocol") {
		t.Errorf("expected protocol mismatch warning, logs:\n%s", logs.String())
	}
	if !strings.Contains(logs.String(), "server motd: hello") {
		t.Errorf("expected motd to be logged, logs:\n%s", logs.String())
	}

	calls := mb.EndCalls()
	time.Sleep(20 * time.Millisecond)
	if mb.EndCalls() != calls {
		t.Error("end poller kept running after Close")
	}

	// Operations after Close are ignored.
	e.SetTimeRange(1, 2)
	e.Wait()
	if w := e.TimeRange(); w.Min == 1 && w.Max == 2 {
		t.Error("window changed after Close")
	}
}

func TestStartInfoFailure(t *testing.T) {
	mb := testutil.NewMockBackend()
	mb.SetInfo(nil, errors.New("connection refused"))
	e, _ := newTestEngine(t, mb, testOptions())

	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start must not fail when server info is unavailable, got %v", err)
	}
}

func TestCompatibleProtocol(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"0.1.0", true},
		{"0.1.7", true},
		{"0.1", true},
		{"0.2.0", false},
		{"1.1.0", false},
		{"", false},
		{"garbage", false},
	}
	for _, tt := range tests {
		if got := compatibleProtocol(tt.version); got != tt.want {
			t.Errorf("compatibleProtocol(%q) = %v, want %v", tt.version, got, tt.want)
		}
	}
}

func TestOptionsWithDefaults(t *testing.T) {
	e, _ := newTestEngine(t, testutil.NewMockBackend(), Options{})
	opts := e.Options()

	if opts.FrameCount != 60 || opts.PrefetchFactor != 1.05 {
		t.Errorf("expected defaults to be filled in, got %+v", opts)
	}
	if w := e.TimeRange(); w.Width() <= 0 {
		t.Errorf("expected a usable initial window, got %+v", w)
	}
}

func TestParseOrdering(t *testing.T) {
	if o, err := ParseOrdering("arrival"); err != nil || o != OrderArrival {
		t.Errorf("expected arrival, got %v (%v)", o, err)
	}
	if o, err := ParseOrdering("generation"); err != nil || o != OrderGeneration {
		t.Errorf("expected generation, got %v (%v)", o, err)
	}
	if _, err := ParseOrdering("newest"); err == nil {
		t.Error("expected error for unknown ordering")
	}
}
