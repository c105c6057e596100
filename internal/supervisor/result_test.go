package supervisor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"rtun/internal/tunnel"
)

func TestShutdownResult_OK(t *testing.T) {
	spec := tunnel.Spec{Port: 8080, User: "user", Host: "localhost"}

	clean := ShutdownResult{Tunnels: []TunnelResult{
		{Spec: spec, Outcome: OutcomeStoppedClean},
	}}
	assert.True(t, clean.OK())
	assert.Equal(t, 0, clean.ExitCode())

	tests := []struct {
		name    string
		outcome Outcome
	}{
		{"launch failure", OutcomeLaunchFailed},
		{"crash", OutcomeCrashed},
		{"forced kill", OutcomeForceKilled},
		{"stop timeout", OutcomeStopTimedOut},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ShutdownResult{Tunnels: []TunnelResult{
				{Spec: spec, Outcome: OutcomeStoppedClean},
				{Spec: spec, Outcome: tt.outcome, Err: errors.New("boom")},
			}}
			assert.False(t, r.OK())
			assert.Equal(t, 1, r.ExitCode())
		})
	}
}

func TestShutdownResult_EmptyIsOK(t *testing.T) {
	// No tunnels requested never happens past CLI validation, but the
	// aggregate must not report failure for an empty set.
	assert.True(t, ShutdownResult{}.OK())
}

func TestStopTimeoutError_Message(t *testing.T) {
	err := &StopTimeoutError{Spec: tunnel.Spec{Port: 8088, User: "u", Host: "h"}}
	assert.Contains(t, err.Error(), "port-8088")
	assert.Contains(t, err.Error(), "did not stop")
}
