package supervisor

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"rtun/pkg/logging"
)

// TerminationReason says why the run is ending.
type TerminationReason string

const (
	// ReasonUserInterrupt - SIGINT (Ctrl-C).
	ReasonUserInterrupt TerminationReason = "user-interrupt"
	// ReasonTerminateRequest - SIGTERM.
	ReasonTerminateRequest TerminationReason = "terminate-request"
	// ReasonChildFailure - a monitored tunnel ended before any stop
	// was requested.
	ReasonChildFailure TerminationReason = "child-failure"
	// ReasonCancelled - the caller's context was cancelled (TUI quit).
	ReasonCancelled TerminationReason = "cancelled"
)

// SignalBridge converts asynchronous OS signals and the supervisor's
// crash event into a single ordinary value returned once from
// WaitForTermination. No work happens in signal-handler context; the
// runtime delivers signals onto a channel we select on.
type SignalBridge struct {
	sigCh   chan os.Signal
	crashed <-chan struct{}
}

// NewSignalBridge registers interest in SIGINT and SIGTERM and merges
// them with the supervisor's crash channel. Must be constructed before
// tunnels are launched so no termination window is missed.
func NewSignalBridge(crashed <-chan struct{}) *SignalBridge {
	// Buffered so a second Ctrl-C while we are already shutting down
	// is absorbed instead of lost.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	return &SignalBridge{
		sigCh:   sigCh,
		crashed: crashed,
	}
}

// WaitForTermination blocks until the first termination trigger and
// returns its reason. Returns exactly once; signals arriving afterward
// sit in the buffered channel and are discarded by Close.
func (b *SignalBridge) WaitForTermination(ctx context.Context) TerminationReason {
	select {
	case sig := <-b.sigCh:
		logging.Info("SignalBridge", "Received %s", sig)
		if sig == syscall.SIGTERM {
			return ReasonTerminateRequest
		}
		return ReasonUserInterrupt
	case <-b.crashed:
		logging.Warn("SignalBridge", "A tunnel process ended unexpectedly")
		return ReasonChildFailure
	case <-ctx.Done():
		return ReasonCancelled
	}
}

// Close unregisters the signal handlers. Subsequent SIGINT/SIGTERM
// fall back to the default disposition.
func (b *SignalBridge) Close() {
	signal.Stop(b.sigCh)
}
