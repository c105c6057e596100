// Package reporting surfaces tunnel state changes and the final
// per-port outcome summary to the operator.
package reporting

import (
	"rtun/internal/supervisor"
	"rtun/internal/tunnel"
)

// Reporter receives tunnel state transitions and, at the end of the
// run, the aggregate result.
type Reporter interface {
	// ReportStateChange is called on every tunnel state transition.
	ReportStateChange(spec tunnel.Spec, oldState, newState supervisor.State, err error)

	// Summary renders the final per-tunnel outcome report.
	Summary(result supervisor.ShutdownResult)
}
