// Package poller runs a task on a fixed interval until stopped.
package poller

import (
	"context"
	"io"
	"log"
	"sync"
	"time"
)

type Task func(ctx context.Context)

type Poller struct {
	name      string
	interval  time.Duration
	task      Task
	immediate bool

	ctx       context.Context
	cancel    context.CancelFunc
	waitGroup sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
	logger    *log.Logger
}

type Option func(*Poller)

// Immediate makes Start run the task once before the first tick.
func Immediate() Option {
	return func(p *Poller) { p.immediate = true }
}

func New(name string, interval time.Duration, task Task, logger *log.Logger, opts ...Option) *Poller {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Poller{
		name:     name,
		interval: interval,
		task:     task,
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the polling goroutine. It does nothing after Stop or when
// called a second time.
func (p *Poller) Start() {
	p.startOnce.Do(func() {
		if p.ctx.Err() != nil {
			return
		}
		p.waitGroup.Add(1)
		go p.loop()
		p.logger.Printf("%s poller started (interval %v)", p.name, p.interval)
	})
}

func (p *Poller) loop() {
	defer p.waitGroup.Done()

	if p.immediate {
		p.task(p.ctx)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.task(p.ctx)
		}
	}
}

// Stop cancels the poller and waits for a running task to return.
// Safe to call more than once and before Start.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		p.cancel()
		p.waitGroup.Wait()
		p.logger.Printf("%s poller stopped", p.name)
	})
}

func (p *Poller) Stopped() bool {
	return p.ctx.Err() != nil
}

// Until calls fn immediately and then every interval until it returns true
// or ctx is done.
func Until(ctx context.Context, interval time.Duration, fn func(ctx context.Context) bool) error {
	if fn(ctx) {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if fn(ctx) {
				return nil
			}
		}
	}
}
