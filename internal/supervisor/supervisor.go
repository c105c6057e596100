// Package supervisor owns the collection of launched tunnel processes,
// watches their liveness, and drives the coordinated shutdown that
// tears all of them down together.
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

// State represents the current state of a supervised tunnel.
type State string

const (
	StateStarting   State = "Starting"
	StateRunning    State = "Running"
	StateExited     State = "Exited"
	StateFailed     State = "Failed"
	StateStopped    State = "Stopped"
	StateStopFailed State = "StopFailed"
)

// StateChangeCallback is invoked after a tunnel's state changes. It is
// called without the supervisor lock held.
type StateChangeCallback func(spec tunnel.Spec, oldState, newState State, err error)

// TunnelStatus is a point-in-time view of one tunnel, used by the TUI
// and the console reporter.
type TunnelStatus struct {
	Spec  tunnel.Spec
	State State
	PID   int
	Err   error
}

// Supervisor launches and tracks one external process per tunnel spec.
// The set of tunnels is fixed after LaunchAll; the shutdown flag
// transitions exactly once.
type Supervisor struct {
	launcher    launcher.Launcher
	stopTimeout time.Duration
	killGrace   time.Duration

	mu       sync.Mutex
	specs    []tunnel.Spec
	procs    map[int]*launcher.Process // keyed by port; nil entry means launch failed
	states   map[int]State
	errs     map[int]error
	stopping bool
	stopDone chan struct{}
	result   *ShutdownResult

	crashed   chan struct{}
	crashOnce sync.Once
	watchers  sync.WaitGroup

	stateCallback StateChangeCallback
}

// New creates a supervisor. stopTimeout bounds the wait after the
// graceful termination request; killGrace bounds the wait after the
// forceful kill.
func New(l launcher.Launcher, stopTimeout, killGrace time.Duration) *Supervisor {
	return &Supervisor{
		launcher:    l,
		stopTimeout: stopTimeout,
		killGrace:   killGrace,
		procs:       make(map[int]*launcher.Process),
		states:      make(map[int]State),
		errs:        make(map[int]error),
		stopDone:    make(chan struct{}),
		crashed:     make(chan struct{}),
	}
}

// SetStateChangeCallback registers the callback notified on every
// tunnel state transition.
func (s *Supervisor) SetStateChangeCallback(cb StateChangeCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stateCallback = cb
}

// LaunchAll starts one process per spec, in order. An individual
// launch failure is recorded as that tunnel's Failed state and never
// aborts the remaining launches.
func (s *Supervisor) LaunchAll(specs []tunnel.Spec) {
	s.mu.Lock()
	s.specs = append([]tunnel.Spec(nil), specs...)
	s.mu.Unlock()

	for _, spec := range specs {
		s.setState(spec, StateStarting, nil)

		proc, err := s.launcher.Launch(spec)
		if err != nil {
			logging.Error("Supervisor", err, "Launch failed for %s", spec.Label())
			s.mu.Lock()
			s.procs[spec.Port] = nil
			s.mu.Unlock()
			s.setState(spec, StateFailed, err)
			continue
		}

		s.mu.Lock()
		s.procs[spec.Port] = proc
		s.mu.Unlock()
		s.setState(spec, StateRunning, nil)

		s.watchers.Add(1)
		go s.monitor(proc)
	}
}

// monitor blocks until the process exits and records the observation.
// An exit before any stop was requested counts as a crash regardless
// of exit code: a foreground ssh tunnel has no legitimate reason to
// exit on its own.
func (s *Supervisor) monitor(proc *launcher.Process) {
	defer s.watchers.Done()

	waitErr := proc.Wait()

	s.mu.Lock()
	wasStopping := s.stopping
	s.mu.Unlock()

	if wasStopping {
		s.setState(proc.Spec, StateExited, waitErr)
		return
	}

	crashErr := waitErr
	if crashErr == nil {
		crashErr = fmt.Errorf("tunnel process exited unexpectedly (code %d)", proc.ExitCode())
	}
	logging.Error("Supervisor", crashErr, "Tunnel %s ended while running", proc.Spec.Label())
	s.setState(proc.Spec, StateFailed, crashErr)

	s.crashOnce.Do(func() { close(s.crashed) })
}

// Crashed is closed when any monitored tunnel ends before a stop was
// requested. The signal bridge selects on it.
func (s *Supervisor) Crashed() <-chan struct{} {
	return s.crashed
}

// RunningCount returns how many tunnels are currently live.
func (s *Supervisor) RunningCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, state := range s.states {
		if state == StateRunning || state == StateStarting {
			n++
		}
	}
	return n
}

// Snapshot returns the current per-tunnel status in request order.
func (s *Supervisor) Snapshot() []TunnelStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]TunnelStatus, 0, len(s.specs))
	for _, spec := range s.specs {
		status := TunnelStatus{
			Spec:  spec,
			State: s.states[spec.Port],
			Err:   s.errs[spec.Port],
		}
		if proc := s.procs[spec.Port]; proc != nil {
			status.PID = proc.PID
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// StopAll drives every tunnel to termination and returns the aggregate
// result. Idempotent: concurrent and repeated callers converge on the
// same single shutdown sequence and receive the same result.
func (s *Supervisor) StopAll(ctx context.Context) ShutdownResult {
	s.mu.Lock()
	if s.stopping {
		done := s.stopDone
		s.mu.Unlock()
		<-done
		s.mu.Lock()
		defer s.mu.Unlock()
		return *s.result
	}
	s.stopping = true

	// Snapshot under the flag transition so the coordinator and the
	// monitors agree on which exits were crashes.
	targets := make([]stopTarget, 0, len(s.specs))
	for _, spec := range s.specs {
		targets = append(targets, stopTarget{
			spec:     spec,
			proc:     s.procs[spec.Port],
			preState: s.states[spec.Port],
			preErr:   s.errs[spec.Port],
		})
	}
	s.mu.Unlock()

	logging.Info("Supervisor", "Stopping %d tunnel(s)", len(targets))

	coordinator := newShutdownCoordinator(s.stopTimeout, s.killGrace)
	result := coordinator.Run(ctx, targets)

	// Every monitor has observed its exit by now for any tunnel that
	// actually died; record the final states.
	for _, tr := range result.Tunnels {
		switch tr.Outcome {
		case OutcomeStoppedClean, OutcomeForceKilled:
			s.setState(tr.Spec, StateStopped, nil)
		case OutcomeStopTimedOut:
			s.setState(tr.Spec, StateStopFailed, tr.Err)
		}
	}

	s.mu.Lock()
	s.result = &result
	s.mu.Unlock()
	close(s.stopDone)

	return result
}

// setState records a state transition and notifies the callback
// outside the lock.
func (s *Supervisor) setState(spec tunnel.Spec, newState State, err error) {
	s.mu.Lock()
	oldState := s.states[spec.Port]
	if oldState == newState && err == nil {
		s.mu.Unlock()
		return
	}
	s.states[spec.Port] = newState
	if err != nil {
		s.errs[spec.Port] = err
	}
	cb := s.stateCallback
	s.mu.Unlock()

	logging.Debug("Supervisor", "Tunnel %s: %s -> %s", spec.Label(), oldState, newState)
	if cb != nil {
		cb(spec, oldState, newState, err)
	}
}
