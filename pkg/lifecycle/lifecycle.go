// Package lifecycle coordinates startup and shutdown of long-lived subsystems.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ReadinessChecker reports whether a subsystem is ready to serve traffic.
type ReadinessChecker interface {
	Ready() bool
}

// Coordinator runs registered startup hooks concurrently, tracks readiness,
// and drives shutdown hooks once its context is cancelled.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc

	startupWg  sync.WaitGroup
	shutdownWg sync.WaitGroup

	mu       sync.RWMutex
	ready    bool
	failures []error
	checks   map[string]ReadinessChecker
}

// New creates a Coordinator with a cancellable context.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		ctx:    ctx,
		cancel: cancel,
		checks: make(map[string]ReadinessChecker),
	}
}

// Context returns the coordinator's context, cancelled on shutdown.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup registers a named hook to run concurrently during startup.
// A returned error is recorded and surfaced by WaitForStartup.
func (c *Coordinator) OnStartup(name string, fn func(ctx context.Context) error) {
	c.startupWg.Go(func() {
		if err := fn(c.ctx); err != nil {
			c.mu.Lock()
			c.failures = append(c.failures, fmt.Errorf("%s: %w", name, err))
			c.mu.Unlock()
		}
	})
}

// OnShutdown registers a hook that runs once the coordinator's context is
// cancelled. Hooks run concurrently and must finish within the Shutdown timeout.
func (c *Coordinator) OnShutdown(fn func()) {
	c.shutdownWg.Go(func() {
		<-c.ctx.Done()
		fn()
	})
}

// Register adds a named readiness check consulted by Ready.
func (c *Coordinator) Register(name string, rc ReadinessChecker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = rc
}

// Ready reports whether startup completed and every registered check passes.
func (c *Coordinator) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.ready {
		return false
	}
	for _, rc := range c.checks {
		if !rc.Ready() {
			return false
		}
	}
	return true
}

// NotReady returns the names of registered checks that currently fail.
func (c *Coordinator) NotReady() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var names []string
	for name, rc := range c.checks {
		if !rc.Ready() {
			names = append(names, name)
		}
	}
	return names
}

// WaitForStartup blocks until all startup hooks have completed. The ready flag
// is only set when no hook failed; otherwise the joined hook errors are returned.
func (c *Coordinator) WaitForStartup() error {
	c.startupWg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.failures) > 0 {
		return errors.Join(c.failures...)
	}
	c.ready = true
	return nil
}

// Shutdown cancels the context and waits for shutdown hooks to complete
// within the given timeout.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.mu.Lock()
	c.ready = false
	c.mu.Unlock()

	c.cancel()

	done := make(chan struct{})
	go func() {
		c.shutdownWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timeout after %v", timeout)
	}
}
