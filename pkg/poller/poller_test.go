package poller

import (
	"context"
	"errors"
	"log"
	"os"
	"sync/atomic"
	"testing"
	"time"
)

func createTestLogger() *log.Logger {
	return log.New(os.Stdout, "[TEST] ", 0)
}

func TestPollerTicks(t *testing.T) {
	var calls int32
	p := New("test", 10*time.Millisecond, func(ctx context.Context) {
		atomic.AddInt32(&calls, 1)
	}, createTestLogger())

	p.Start()
	time.Sleep(55 * time.Millisecond)
	p.Stop()

	got := atomic.LoadInt32(&calls)
	if got < 2 {
		t.Errorf("expected at least 2 ticks, got %d", got)
	}

	time.Sleep(30 * time.Millisecond)
	if after := atomic.LoadInt32(&calls); after != got {
		t.Errorf("task ran after Stop: %d -> %d", got, after)
	}
}

func TestPollerImmediate(t *testing.T) {
	ran := make(chan struct{}, 1)
	p := New("immediate", time.Hour, func(ctx context.Context) {
		select {
		case ran <- struct{}{}:
		default:
		}
	}, createTestLogger(), Immediate())

	p.Start()
	defer p.Stop()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("expected immediate run")
	}
}

func TestPollerStopIdempotent(t *testing.T) {
	p := New("idem", 5*time.Millisecond, func(ctx context.Context) {}, nil)

	// Before Start.
	p.Stop()
	p.Stop()
	if !p.Stopped() {
		t.Error("expected poller to report stopped")
	}

	var calls int32
	p2 := New("late", 5*time.Millisecond, func(ctx context.Context) { atomic.AddInt32(&calls, 1) }, nil, Immediate())
	p2.Stop()
	p2.Start()
	time.Sleep(20 * time.Millisecond)
	if atomic.LoadInt32(&calls) != 0 {
		t.Error("Start after Stop must not run the task")
	}
}

func TestPollerStopCancelsTask(t *testing.T) {
	started := make(chan struct{})
	p := New("blocking", time.Hour, func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	}, createTestLogger(), Immediate())

	p.Start()
	<-started

	done := make(chan struct{})
	go func() {
		p.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not cancel the running task")
	}
}

func TestUntil(t *testing.T) {
	t.Run("succeeds after retries", func(t *testing.T) {
		attempts := 0
		err := Until(context.Background(), 5*time.Millisecond, func(ctx context.Context) bool {
			attempts++
			return attempts == 3
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if attempts != 3 {
			t.Errorf("expected 3 attempts, got %d", attempts)
		}
	})

	t.Run("first attempt succeeds", func(t *testing.T) {
		attempts := 0
		err := Until(context.Background(), time.Hour, func(ctx context.Context) bool {
			attempts++
			return true
		})
		if err != nil || attempts != 1 {
			t.Errorf("expected single successful attempt, got %d (%v)", attempts, err)
		}
	})

	t.Run("context cancelled", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()
		err := Until(ctx, 5*time.Millisecond, func(ctx context.Context) bool { return false })
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
	})
}
