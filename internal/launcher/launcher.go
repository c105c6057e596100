// Package launcher starts and owns the external ssh child processes
// that carry the tunnels. Each child runs in its own process group so
// termination signals reach the whole ssh invocation.
package launcher

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"

	"rtun/internal/tunnel"
	"rtun/pkg/logging"
)

// stderrTailLines bounds how much child stderr is retained for the
// final report.
const stderrTailLines = 50

// LaunchError reports that a single tunnel's child process could not
// be started. It is fatal for that tunnel only.
type LaunchError struct {
	Spec tunnel.Spec
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch tunnel for port %d: %v", e.Spec.Port, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// Launcher starts one external tunnel process per spec.
type Launcher interface {
	Launch(spec tunnel.Spec) (*Process, error)
}

// ExecLauncher launches tunnels through the configured ssh binary.
type ExecLauncher struct {
	Binary string
}

// NewExecLauncher returns a launcher using the given ssh binary.
// An empty binary falls back to "ssh" resolved via PATH.
func NewExecLauncher(binary string) *ExecLauncher {
	if binary == "" {
		binary = "ssh"
	}
	return &ExecLauncher{Binary: binary}
}

// BuildCommand assembles the exec.Cmd for a spec. Package-level var so
// tests can substitute a fake child process.
var BuildCommand = func(binary string, spec tunnel.Spec) *exec.Cmd {
	return exec.Command(binary, spec.SSHArgs()...)
}

// Launch starts the child process for spec and returns its handle.
// The returned Process is in the Running state from the supervisor's
// point of view; the caller owns it exclusively.
func (l *ExecLauncher) Launch(spec tunnel.Spec) (*Process, error) {
	cmd := BuildCommand(l.Binary, spec)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Env = os.Environ()

	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, &LaunchError{Spec: spec, Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		stderrPipe.Close()
		return nil, &LaunchError{Spec: spec, Err: err}
	}

	p := &Process{
		Spec: spec,
		PID:  cmd.Process.Pid,
		cmd:  cmd,
		done: make(chan struct{}),
	}

	// Drain stderr for the lifetime of the child. The content is not
	// analyzed, only surfaced when the tunnel fails.
	go func() {
		defer stderrPipe.Close()
		scanner := bufio.NewScanner(stderrPipe)
		for scanner.Scan() {
			p.appendStderr(scanner.Text())
		}
	}()

	logging.Info("Launcher", "Started %s %s (PID %d)", l.Binary, strings.Join(spec.SSHArgs(), " "), p.PID)
	return p, nil
}

// Process is the handle to one live tunnel child. It is exclusively
// owned by the supervisor; the coordinator reaches it only through
// Terminate, Kill and the exit channel.
type Process struct {
	Spec tunnel.Spec
	PID  int

	cmd      *exec.Cmd
	done     chan struct{}
	waitErr  error
	waitOnce sync.Once

	mu          sync.Mutex
	stderrLines []string
}

// Wait blocks until the child has exited and returns the wait error,
// if any. Safe to call from multiple goroutines; the underlying
// cmd.Wait runs exactly once.
func (p *Process) Wait() error {
	p.waitOnce.Do(func() {
		p.waitErr = p.cmd.Wait()
		close(p.done)
	})
	<-p.done
	return p.waitErr
}

// Done is closed once the child has exited.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// ExitCode returns the child's exit code, or -1 if it has not exited
// or was killed by a signal.
func (p *Process) ExitCode() int {
	state := p.cmd.ProcessState
	if state == nil {
		return -1
	}
	return state.ExitCode()
}

// Terminate sends a graceful termination request (SIGTERM) to the
// child's process group.
func (p *Process) Terminate() error {
	return p.signalGroup(syscall.SIGTERM)
}

// Kill forcefully kills the child's process group.
func (p *Process) Kill() error {
	return p.signalGroup(syscall.SIGKILL)
}

func (p *Process) signalGroup(sig syscall.Signal) error {
	err := syscall.Kill(-p.PID, sig)
	if err == syscall.ESRCH {
		// Already gone; nothing to signal.
		return nil
	}
	return err
}

// Stderr returns the retained tail of the child's stderr output.
func (p *Process) Stderr() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return strings.Join(p.stderrLines, "\n")
}

func (p *Process) appendStderr(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stderrLines = append(p.stderrLines, line)
	if len(p.stderrLines) > stderrTailLines {
		p.stderrLines = p.stderrLines[len(p.stderrLines)-stderrTailLines:]
	}
}
