package supervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rtun/internal/launcher"
	"rtun/internal/tunnel"
	"rtun/pkg/logging"
)

// coordinatorPhase tracks the shutdown state machine.
type coordinatorPhase int

const (
	phaseIdle coordinatorPhase = iota
	phaseStopping
	phaseStopped
)

// stopTarget is one tunnel handed to the coordinator, snapshotted at
// the moment the shutdown flag transitioned.
type stopTarget struct {
	spec     tunnel.Spec
	proc     *launcher.Process // nil when the launch failed
	preState State             // state observed before the stop began
	preErr   error
}

// shutdownCoordinator drives Idle -> Stopping -> Stopped: broadcast
// the graceful termination request to every live tunnel concurrently,
// wait with a bounded deadline, escalate stragglers to a forceful
// kill, and collect per-tunnel outcomes.
type shutdownCoordinator struct {
	stopTimeout time.Duration
	killGrace   time.Duration

	mu    sync.Mutex
	phase coordinatorPhase
}

func newShutdownCoordinator(stopTimeout, killGrace time.Duration) *shutdownCoordinator {
	return &shutdownCoordinator{
		stopTimeout: stopTimeout,
		killGrace:   killGrace,
		phase:       phaseIdle,
	}
}

func (c *shutdownCoordinator) currentPhase() coordinatorPhase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Run executes the shutdown sequence once and returns the aggregate
// result in target order. One stubborn tunnel never delays the
// others' outcomes beyond stopTimeout + killGrace.
func (c *shutdownCoordinator) Run(ctx context.Context, targets []stopTarget) ShutdownResult {
	c.mu.Lock()
	c.phase = phaseStopping
	c.mu.Unlock()

	outcomes := make([]TunnelResult, len(targets))
	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target stopTarget) {
			defer wg.Done()
			outcomes[i] = c.stopOne(ctx, target)
		}(i, target)
	}
	wg.Wait()

	c.mu.Lock()
	c.phase = phaseStopped
	c.mu.Unlock()

	return ShutdownResult{Tunnels: outcomes}
}

// stopOne drives a single tunnel to termination and classifies its
// outcome. Each slot in the result is written by exactly one goroutine.
func (c *shutdownCoordinator) stopOne(ctx context.Context, target stopTarget) TunnelResult {
	result := TunnelResult{Spec: target.spec, Err: target.preErr}

	// Never launched: nothing to stop.
	if target.proc == nil {
		result.Outcome = OutcomeLaunchFailed
		return result
	}
	result.Stderr = target.proc.Stderr()

	// Already dead before the stop began: that exit was a crash.
	if target.preState == StateFailed || target.preState == StateExited {
		result.Outcome = OutcomeCrashed
		return result
	}

	if err := target.proc.Terminate(); err != nil {
		logging.Warn("ShutdownCoordinator", "Failed to send termination request to %s: %v", target.spec.Label(), err)
	}

	select {
	case <-target.proc.Done():
		result.Outcome = OutcomeStoppedClean
		result.Stderr = target.proc.Stderr()
		return result
	case <-time.After(c.stopTimeout):
	case <-ctx.Done():
		// Caller gave up waiting; escalate immediately.
	}

	logging.Warn("ShutdownCoordinator", "Tunnel %s did not exit within %s, killing", target.spec.Label(), c.stopTimeout)
	if err := target.proc.Kill(); err != nil {
		logging.Warn("ShutdownCoordinator", "Failed to kill %s: %v", target.spec.Label(), err)
	}

	select {
	case <-target.proc.Done():
		result.Outcome = OutcomeForceKilled
		result.Stderr = target.proc.Stderr()
		return result
	case <-time.After(c.killGrace):
		result.Outcome = OutcomeStopTimedOut
		result.Err = &StopTimeoutError{Spec: target.spec}
		return result
	}
}

// StopTimeoutError reports a tunnel that survived both the graceful
// request and the forceful kill within their allotted time.
type StopTimeoutError struct {
	Spec tunnel.Spec
}

func (e *StopTimeoutError) Error() string {
	return fmt.Sprintf("tunnel %s did not stop within the deadline", e.Spec.Label())
}
