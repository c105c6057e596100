// Package tunnel defines the immutable description of a single
// forwarded port: which local port binds to which remote port, and the
// ssh endpoint carrying it.
package tunnel

import (
	"fmt"
)

// Spec describes one requested tunnel. It is created once from
// validated CLI input and never mutated afterwards.
type Spec struct {
	Port int
	User string
	Host string
}

// Validate checks that the spec can be turned into an ssh invocation.
func (s Spec) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", s.Port)
	}
	if s.User == "" {
		return fmt.Errorf("user must not be empty")
	}
	if s.Host == "" {
		return fmt.Errorf("host must not be empty")
	}
	return nil
}

// Address returns the user@host endpoint for the ssh invocation.
func (s Spec) Address() string {
	return fmt.Sprintf("%s@%s", s.User, s.Host)
}

// Forward returns the -L argument binding the local port to the same
// port on the remote side.
func (s Spec) Forward() string {
	return fmt.Sprintf("%d:127.0.0.1:%d", s.Port, s.Port)
}

// SSHArgs returns the argument list for the ssh binary: stay in the
// foreground without a remote command (-N), no pseudo-terminal (-T),
// and forward the local port to the same remote port.
func (s Spec) SSHArgs() []string {
	return []string{"-N", "-T", "-L", s.Forward(), s.Address()}
}

// Label identifies the tunnel in logs and reports.
func (s Spec) Label() string {
	return fmt.Sprintf("port-%d", s.Port)
}

// BuildSpecs validates every requested port and returns one Spec per
// port, preserving the input order.
func BuildSpecs(ports []int, user, host string) ([]Spec, error) {
	if len(ports) == 0 {
		return nil, fmt.Errorf("at least one port is required")
	}
	specs := make([]Spec, 0, len(ports))
	for _, port := range ports {
		spec := Spec{Port: port, User: user, Host: host}
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
