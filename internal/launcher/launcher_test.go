package launcher

import (
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rtun/internal/tunnel"
)

// overrideBuildCommand substitutes the child process for tests and
// returns a cleanup function restoring the original.
func overrideBuildCommand(t *testing.T, script string) {
	t.Helper()
	original := BuildCommand
	t.Cleanup(func() { BuildCommand = original })
	BuildCommand = func(binary string, spec tunnel.Spec) *exec.Cmd {
		return exec.Command("/bin/sh", "-c", script)
	}
}

func testSpec() tunnel.Spec {
	return tunnel.Spec{Port: 8080, User: "user", Host: "localhost"}
}

func TestLaunch_StartsProcess(t *testing.T) {
	overrideBuildCommand(t, "sleep 30")

	p, err := NewExecLauncher("ssh").Launch(testSpec())
	require.NoError(t, err)
	require.NotNil(t, p)
	defer func() {
		_ = p.Kill()
		_ = p.Wait()
	}()

	assert.Greater(t, p.PID, 0)
	assert.Equal(t, 8080, p.Spec.Port)

	// Still running: Done must not be closed yet
	select {
	case <-p.Done():
		t.Fatal("process reported done while still running")
	default:
	}
}

func TestLaunch_MissingBinary(t *testing.T) {
	_, err := NewExecLauncher("/nonexistent/rtun-test-ssh").Launch(testSpec())
	require.Error(t, err)

	var launchErr *LaunchError
	require.ErrorAs(t, err, &launchErr)
	assert.Equal(t, 8080, launchErr.Spec.Port)
}

func TestProcess_WaitObservesExit(t *testing.T) {
	overrideBuildCommand(t, "exit 3")

	p, err := NewExecLauncher("ssh").Launch(testSpec())
	require.NoError(t, err)

	err = p.Wait()
	assert.Error(t, err)
	assert.Equal(t, 3, p.ExitCode())

	select {
	case <-p.Done():
	default:
		t.Fatal("Done not closed after Wait returned")
	}
}

func TestProcess_WaitIsReentrant(t *testing.T) {
	overrideBuildCommand(t, "exit 0")

	p, err := NewExecLauncher("ssh").Launch(testSpec())
	require.NoError(t, err)

	results := make(chan error, 3)
	for i := 0; i < 3; i++ {
		go func() { results <- p.Wait() }()
	}
	for i := 0; i < 3; i++ {
		select {
		case err := <-results:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("concurrent Wait did not return")
		}
	}
}

func TestProcess_TerminateStopsChild(t *testing.T) {
	overrideBuildCommand(t, "sleep 30")

	p, err := NewExecLauncher("ssh").Launch(testSpec())
	require.NoError(t, err)

	require.NoError(t, p.Terminate())

	waitDone := make(chan struct{})
	go func() {
		_ = p.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(5 * time.Second):
		t.Fatal("child did not exit after SIGTERM")
	}
}

func TestProcess_KillStopsStubbornChild(t *testing.T) {
	// Child ignores SIGTERM
	overrideBuildCommand(t, "trap '' TERM; while :; do :; done")

	p, err := NewExecLauncher("ssh").Launch(testSpec())
	require.NoError(t, err)

	// Give the shell a moment to install the trap
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, p.Terminate())

	select {
	case <-p.Done():
		t.Fatal("SIGTERM-ignoring child exited unexpectedly")
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, p.Kill())
	waitDone := make(chan struct{})
	go func() {
		_ = p.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(5 * time.Second):
		t.Fatal("child did not exit after SIGKILL")
	}
}

func TestProcess_StderrCaptured(t *testing.T) {
	overrideBuildCommand(t, "echo 'connection refused' >&2; exit 255")

	p, err := NewExecLauncher("ssh").Launch(testSpec())
	require.NoError(t, err)
	_ = p.Wait()

	// The stderr drain goroutine races Wait by a hair; poll briefly.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if p.Stderr() != "" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.Contains(t, p.Stderr(), "connection refused")
}

func TestProcess_SignalAfterExitIsHarmless(t *testing.T) {
	overrideBuildCommand(t, "exit 0")

	p, err := NewExecLauncher("ssh").Launch(testSpec())
	require.NoError(t, err)
	require.NoError(t, p.Wait())

	assert.NoError(t, p.Terminate())
	assert.NoError(t, p.Kill())
}
