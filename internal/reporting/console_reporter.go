package reporting

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"rtun/internal/supervisor"
	"rtun/internal/tunnel"
	"rtun/pkg/logging"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	portStyle = lipgloss.NewStyle().Bold(true)
)

// ConsoleReporter logs state transitions through pkg/logging and
// prints the final summary to its writer.
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter creates a reporter writing its summary to stdout.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{out: os.Stdout}
}

// NewConsoleReporterWithWriter creates a reporter with a custom
// writer, used by tests.
func NewConsoleReporterWithWriter(out io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: out}
}

// ReportStateChange logs every tunnel state transition.
func (c *ConsoleReporter) ReportStateChange(spec tunnel.Spec, oldState, newState supervisor.State, err error) {
	subsystem := "Tunnel-" + spec.Label()
	if err != nil {
		logging.Error(subsystem, err, "State: %s -> %s", oldState, newState)
		return
	}
	logging.Info(subsystem, "State: %s -> %s", oldState, newState)
}

// Summary prints one line per port with its final outcome.
func (c *ConsoleReporter) Summary(result supervisor.ShutdownResult) {
	fmt.Fprintln(c.out)
	for _, tr := range result.Tunnels {
		style := okStyle
		if !tr.Outcome.Clean() {
			style = failStyle
		}
		line := fmt.Sprintf("%s  %s  %s",
			portStyle.Render(fmt.Sprintf("%5d", tr.Spec.Port)),
			tr.Spec.Address(),
			style.Render(string(tr.Outcome)))
		if tr.Err != nil {
			line += fmt.Sprintf("  (%v)", tr.Err)
		}
		fmt.Fprintln(c.out, line)
		if !tr.Outcome.Clean() && tr.Stderr != "" {
			fmt.Fprintf(c.out, "       last ssh output: %s\n", lastLine(tr.Stderr))
		}
	}
}

// lastLine returns the final line of a multi-line string.
func lastLine(s string) string {
	last := s
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '\n' {
			last = s[i+1:]
			break
		}
	}
	return last
}
