package app

import (
	"context"
	"os/signal"
	"syscall"
	"time"
)

// CancelFuncs holds the cancel functions of a run's context.
type CancelFuncs struct {
	// CancelTimeout releases the deadline timer.
	CancelTimeout context.CancelFunc
	// StopSignals stops listening for OS signals.
	StopSignals context.CancelFunc
}

// Cleanup calls both cancel functions. It is safe on a zero CancelFuncs.
func (c *CancelFuncs) Cleanup() {
	if c.StopSignals != nil {
		c.StopSignals()
	}
	if c.CancelTimeout != nil {
		c.CancelTimeout()
	}
}

// SetupLifecycle derives the context of a batch of builds. It is canceled
// when timeout expires or on SIGINT/SIGTERM, whichever happens first. A
// non-positive timeout sets no deadline.
//
// Parameters:
//   - ctx: The parent context.
//   - timeout: The maximum duration of the batch.
//
// Returns:
//   - context.Context: The derived context.
//   - *CancelFuncs: The functions to release it, typically deferred via Cleanup.
func SetupLifecycle(ctx context.Context, timeout time.Duration) (context.Context, *CancelFuncs) {
	cancels := &CancelFuncs{}
	if timeout > 0 {
		ctx, cancels.CancelTimeout = context.WithTimeout(ctx, timeout)
	}
	ctx, cancels.StopSignals = signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	return ctx, cancels
}
