package config

import (
	"fmt"
	"math"
	"net/url"

	"github.com/bmatcuk/doublestar/v4"
)

func (c *Config) validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("%s is required", KeyServerURL)
	}
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", KeyServerURL, c.ServerURL)
	}

	if c.Polling.EndPoll <= 0 {
		return fmt.Errorf("%s must be positive", KeyEndPollMs)
	}
	if c.Polling.BootstrapRetry <= 0 {
		return fmt.Errorf("%s must be positive", KeyBootstrapRetryMs)
	}
	if c.Polling.Autoscroll <= 0 {
		return fmt.Errorf("%s must be positive", KeyAutoscrollMs)
	}

	if c.Fetch.FrameCount <= 0 {
		return fmt.Errorf("%s must be positive, got %d", KeyFrameCount, c.Fetch.FrameCount)
	}
	if math.IsNaN(c.Fetch.PrefetchFactor) || c.Fetch.PrefetchFactor < 1 {
		return fmt.Errorf("%s must be at least 1, got %v", KeyPrefetchFactor, c.Fetch.PrefetchFactor)
	}
	if c.Fetch.ResponseOrdering != OrderingGeneration && c.Fetch.ResponseOrdering != OrderingArrival {
		return fmt.Errorf("%s must be %q or %q, got %q", KeyResponseOrdering, OrderingGeneration, OrderingArrival, c.Fetch.ResponseOrdering)
	}
	if c.Fetch.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("%s must not be negative", KeyRequestTimeoutSeconds)
	}

	if !isFinite(c.Window.InitialMin) || c.Window.InitialMin < 0 {
		return fmt.Errorf("%s must be a non-negative number, got %v", KeyInitialMin, c.Window.InitialMin)
	}
	if !isFinite(c.Window.InitialWidth) || c.Window.InitialWidth <= 0 {
		return fmt.Errorf("%s must be positive, got %v", KeyInitialWidth, c.Window.InitialWidth)
	}

	if c.Runtime.StatusSeconds <= 0 {
		return fmt.Errorf("%s must be positive", KeyStatusSeconds)
	}

	for _, pattern := range c.HiddenThreads {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%s: invalid pattern %q", KeyHiddenThreads, pattern)
		}
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
