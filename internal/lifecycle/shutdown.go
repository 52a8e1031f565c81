// Package lifecycle coordinates the development provider's run time: signal
// handling, idle shutdown and bounded graceful shutdown.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ErrShutdown is the cancellation cause of a context returned by
// ShutdownManager.Start.
var ErrShutdown = errors.New("shutdown requested")

// ShutdownManager turns signals and explicit requests into the cancellation
// of a single context. Only the first reason is kept.
type ShutdownManager struct {
	signals    []os.Signal
	signalChan chan os.Signal
	requests   chan struct{}

	mu       sync.Mutex
	shutdown bool
	stopped  bool
	reason   string
}

// NewShutdownManager creates a manager listening for signals, SIGTERM and
// SIGINT if none are given.
func NewShutdownManager(signals ...os.Signal) *ShutdownManager {
	if len(signals) == 0 {
		signals = []os.Signal{syscall.SIGTERM, syscall.SIGINT}
	}
	return &ShutdownManager{
		signals:    signals,
		signalChan: make(chan os.Signal, 1),
		requests:   make(chan struct{}, 1),
	}
}

// Start begins listening for signals. The returned context is cancelled with
// an ErrShutdown cause once shutdown is requested, or when ctx ends.
func (sm *ShutdownManager) Start(ctx context.Context) context.Context {
	signal.Notify(sm.signalChan, sm.signals...)

	shutdownCtx, cancel := context.WithCancelCause(ctx)

	go func() {
		select {
		case sig, ok := <-sm.signalChan:
			if ok {
				sm.record(fmt.Sprintf("received signal: %v", sig))
			}
		case <-sm.requests:
		case <-ctx.Done():
			cancel(context.Cause(ctx))
			return
		}
		cancel(fmt.Errorf("%w: %s", ErrShutdown, sm.Reason()))
	}()

	return shutdownCtx
}

// Shutdown requests a shutdown for reason.
func (sm *ShutdownManager) Shutdown(reason string) {
	if !sm.record(reason) {
		return
	}

	select {
	case sm.requests <- struct{}{}:
	default:
	}
}

// record keeps the first reason and reports whether this call set it.
func (sm *ShutdownManager) record(reason string) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return false
	}
	sm.shutdown = true
	sm.reason = reason
	return true
}

// IsShutdown returns whether shutdown has been requested.
func (sm *ShutdownManager) IsShutdown() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.shutdown
}

// Reason returns the reason of the first shutdown request.
func (sm *ShutdownManager) Reason() string {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.reason
}

// Stop stops listening for signals and ends the context returned by Start.
// It is safe to call more than once.
func (sm *ShutdownManager) Stop() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.stopped {
		return
	}

	sm.stopped = true
	signal.Stop(sm.signalChan)
	close(sm.signalChan)
}

// GracefulShutdown runs shutdownFunc and gives up after timeout.
func GracefulShutdown(ctx context.Context, shutdownFunc func(context.Context) error, timeout time.Duration) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- shutdownFunc(shutdownCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-shutdownCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("shutdown timed out after %v", timeout)
	}
}
