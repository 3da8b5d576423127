package main

import (
	"context"
	"log"
	"time"

	"lens-viewer/pkg/config"
	"lens-viewer/pkg/engine"
	"lens-viewer/pkg/telemetry"
	"lens-viewer/pkg/utils"
)

// viewState is the part of the engine the status printer reads.
type viewState interface {
	Snapshot() engine.Snapshot
}

// CLI represents the command-line interface runner
type CLI struct {
	telemetry telemetry.TelemetryReader
	view      viewState
	config    *config.Config
	logger    *log.Logger

	// State
	lastSnapshot telemetry.Snapshot
	printed      bool
	done         chan struct{}
}

// NewCLI creates a new command-line interface runner
func NewCLI(telemetryReader telemetry.TelemetryReader, view viewState, cfg *config.Config, logger *log.Logger) *CLI {
	return &CLI{
		telemetry: telemetryReader,
		view:      view,
		config:    cfg,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Run starts the CLI runner and blocks until shutdown
func (c *CLI) Run(ctx context.Context) error {
	c.logger.Printf("Starting lens viewer in headless mode")
	c.logger.Printf("Server: %s", c.config.ServerURL)
	c.logger.Printf("Frame count: %d, response ordering: %s", c.config.Fetch.FrameCount, c.config.Fetch.ResponseOrdering)

	ticker := time.NewTicker(c.config.StatusInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Printf("Shutting down...")
			return nil
		case <-ticker.C:
			c.printStatus()
		case <-c.done:
			return nil
		}
	}
}

// Stop stops the CLI runner
func (c *CLI) Stop() {
	close(c.done)
}

// printStatus prints current telemetry and window status
func (c *CLI) printStatus() {
	snapshot := c.telemetry.Snapshot()

	if c.shouldPrintStatus(snapshot) {
		c.logger.Printf("Status - Fetches: issued=%s, completed=%s, failed=%d, stale=%d, rate=%.1f/s, p95=%.1fms, errors=%d",
			utils.FormatNumber(snapshot.FetchesIssued),
			utils.FormatNumber(snapshot.FetchesCompleted),
			snapshot.FetchesFailed,
			snapshot.StaleDiscarded,
			snapshot.FetchesPerSecond,
			snapshot.P95LatencyMs,
			snapshot.ErrorsTotal)

		view := c.view.Snapshot()
		mode := "coarse"
		if view.Detailed {
			mode = "detailed"
		}
		c.logger.Printf("Window - [%s, %s] of %s, frames: %d (%s), autoscroll: %t",
			utils.FormatSeconds(view.Window.Min),
			utils.FormatSeconds(view.Window.Max),
			utils.FormatSeconds(view.DataEnd),
			len(view.Frames),
			mode,
			view.Autoscroll)

		if busiest := utils.SortThreadsByZoneCount(view.Zones); len(busiest) > 0 {
			top := busiest[0]
			c.logger.Printf("Threads - known: %d, busiest: %s (%d zones)",
				len(view.Threads), view.ThreadName(top.ThreadID), top.Count)
		}
	}

	c.lastSnapshot = snapshot
	c.printed = true
}

// shouldPrintStatus determines if we should print a status update
func (c *CLI) shouldPrintStatus(snapshot telemetry.Snapshot) bool {
	// Always print first status
	if !c.printed {
		return true
	}

	if snapshot.FetchesCompleted != c.lastSnapshot.FetchesCompleted ||
		snapshot.StaleDiscarded != c.lastSnapshot.StaleDiscarded {
		return true
	}

	if snapshot.ErrorsTotal > c.lastSnapshot.ErrorsTotal {
		return true
	}

	if snapshot.WindowMin != c.lastSnapshot.WindowMin ||
		snapshot.WindowMax != c.lastSnapshot.WindowMax ||
		snapshot.DataEnd != c.lastSnapshot.DataEnd ||
		snapshot.Autoscroll != c.lastSnapshot.Autoscroll {
		return true
	}

	return false
}
