package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"lens-viewer/pkg/events"
	"lens-viewer/pkg/poller"
)

// Bootstrap loads the current window, retrying every BootstrapRetry until
// zone/heap data comes back non-empty and at least FrameCount frames are
// loaded. Both loops run concurrently. LoadingChanged(true) fires before and
// LoadingChanged(false) after, also when ctx ends first.
func (e *Engine) Bootstrap(ctx context.Context) error {
	e.notifier.enqueue(events.LoadingChanged{Loading: true})
	e.notifier.flush()
	defer func() {
		e.notifier.enqueue(events.LoadingChanged{Loading: false})
		e.notifier.flush()
	}()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		attempts := 0
		err := poller.Until(gctx, e.opts.BootstrapRetry, func(ctx context.Context) bool {
			attempts++
			w := e.TimeRange()
			empty, err := e.fetchMainResult(ctx, e.mainGen.next(), w.Min, w.Max)
			return err == nil && !empty
		})
		if err != nil {
			return fmt.Errorf("initial zone data after %d attempts: %w", attempts, err)
		}
		e.logger.Printf("initial zone data loaded after %d attempts", attempts)
		return nil
	})

	g.Go(func() error {
		attempts := 0
		err := poller.Until(gctx, e.opts.BootstrapRetry, func(ctx context.Context) bool {
			attempts++
			w := e.TimeRange()
			n, err := e.fetchFrames(ctx, e.frameGen.next(), w, (w.Min+w.Max)/2, e.opts.FrameCount)
			return err == nil && n >= e.opts.FrameCount
		})
		if err != nil {
			return fmt.Errorf("initial frames after %d attempts: %w", attempts, err)
		}
		e.logger.Printf("initial frames loaded after %d attempts", attempts)
		return nil
	})

	return g.Wait()
}
