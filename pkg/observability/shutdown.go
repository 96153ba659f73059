package observability

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ShutdownFunc releases one resource
type ShutdownFunc func(context.Context) error

type release struct {
	name string
	fn   ShutdownFunc
}

// ShutdownManager releases process resources (telemetry exporters, the
// database pool, the Redis client, background workers) once the HTTP
// servers have stopped.
type ShutdownManager struct {
	logger  *Logger
	timeout time.Duration

	mu       sync.Mutex
	releases []release
}

// NewShutdownManager creates a manager whose Shutdown is bounded by timeout
// (30s when zero).
func NewShutdownManager(logger *Logger, timeout time.Duration) *ShutdownManager {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ShutdownManager{logger: logger, timeout: timeout}
}

// Register adds a resource. Resources are released in reverse order, so
// register a dependency before the things that use it.
func (sm *ShutdownManager) Register(name string, fn ShutdownFunc) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.releases = append(sm.releases, release{name: name, fn: fn})
}

// Shutdown releases every registered resource, last registered first, under
// one shared deadline. A failure is logged and collected; the remaining
// resources are still released. Calling Shutdown again is a no-op.
func (sm *ShutdownManager) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, sm.timeout)
	defer cancel()

	sm.mu.Lock()
	releases := sm.releases
	sm.releases = nil
	sm.mu.Unlock()

	var errs []error
	for i := len(releases) - 1; i >= 0; i-- {
		r := releases[i]
		log := sm.logger.WithField("resource", r.name)

		if err := sm.release(ctx, r); err != nil {
			log.WithError(err).Error("failed to release resource")
			errs = append(errs, fmt.Errorf("%s: %w", r.name, err))
			continue
		}
		log.Debug("released")
	}
	return errors.Join(errs...)
}

func (sm *ShutdownManager) release(ctx context.Context, r release) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("shutdown timeout exceeded: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- r.fn(ctx) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout exceeded: %w", ctx.Err())
	}
}
