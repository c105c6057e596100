package supervisor

import (
	"rtun/internal/tunnel"
)

// Outcome is the final per-tunnel verdict reported once the run ends.
type Outcome string

const (
	// OutcomeStoppedClean - the tunnel ran and exited after the
	// graceful termination request.
	OutcomeStoppedClean Outcome = "stopped"
	// OutcomeForceKilled - the tunnel ignored the graceful request and
	// exited only after the forceful kill.
	OutcomeForceKilled Outcome = "killed"
	// OutcomeStopTimedOut - the tunnel did not exit even after the
	// forceful kill and its grace period.
	OutcomeStopTimedOut Outcome = "stop-timed-out"
	// OutcomeCrashed - the tunnel's process exited on its own before
	// any stop was requested.
	OutcomeCrashed Outcome = "crashed"
	// OutcomeLaunchFailed - the tunnel's process could not be started.
	OutcomeLaunchFailed Outcome = "failed-to-launch"
)

// Clean reports whether the outcome counts as a fully successful run
// for this tunnel.
func (o Outcome) Clean() bool {
	return o == OutcomeStoppedClean
}

// TunnelResult is the recorded end state of a single tunnel.
type TunnelResult struct {
	Spec    tunnel.Spec
	Outcome Outcome
	Err     error  // launch error, crash error or stop failure, if any
	Stderr  string // retained child stderr, surfaced on failure
}

// ShutdownResult is the aggregate outcome of a run, one entry per
// requested tunnel in the original request order. Read-only after
// construction.
type ShutdownResult struct {
	Tunnels []TunnelResult
}

// OK reports whether every tunnel launched and stopped cleanly.
func (r ShutdownResult) OK() bool {
	for _, t := range r.Tunnels {
		if !t.Outcome.Clean() {
			return false
		}
	}
	return true
}

// ExitCode maps the aggregate outcome to the process exit code.
func (r ShutdownResult) ExitCode() int {
	if r.OK() {
		return 0
	}
	return 1
}
