package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rtun/internal/config"
	"rtun/internal/launcher"
	"rtun/internal/reporting"
	"rtun/internal/supervisor"
	"rtun/internal/tui"
	"rtun/internal/tunnel"
	"rtun/pkg/logging"
)

// runRoot is the core run: validate input, launch every tunnel, block
// until a termination trigger, then drive the coordinated shutdown and
// report the aggregate outcome.
func runRoot(cmd *cobra.Command, args []string) error {
	ports, err := parsePorts(args)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	user := flagUser
	if user == "" {
		user = cfg.SSH.DefaultUser
	}
	host := flagHost
	if host == "" {
		host = cfg.SSH.DefaultHost
	}

	specs, err := tunnel.BuildSpecs(ports, user, host)
	if err != nil {
		return err
	}

	stopTimeout := cfg.Shutdown.StopTimeout
	if flagStopTimeout > 0 {
		stopTimeout = flagStopTimeout
	}
	logLevelName := cfg.GlobalSettings.LogLevel
	if flagLogLevel != "" {
		logLevelName = flagLogLevel
	}
	level := logging.ParseLevel(logLevelName)

	sup := supervisor.New(
		launcher.NewExecLauncher(cfg.SSH.Binary),
		stopTimeout,
		cfg.Shutdown.KillGrace,
	)

	// The bridge must exist before any tunnel launches so no
	// termination window is missed.
	bridge := supervisor.NewSignalBridge(sup.Crashed())
	defer bridge.Close()

	reporter := reporting.NewConsoleReporter()

	if flagNoTUI {
		return runConsole(cmd.Context(), sup, bridge, reporter, specs, level)
	}
	return runTUI(cmd.Context(), sup, bridge, reporter, specs, level)
}

// runConsole launches the tunnels and blocks on the signal bridge
// until something ends the run.
func runConsole(
	ctx context.Context,
	sup *supervisor.Supervisor,
	bridge *supervisor.SignalBridge,
	reporter *reporting.ConsoleReporter,
	specs []tunnel.Spec,
	level logging.LogLevel,
) error {
	logging.InitForCLI(level, os.Stderr)
	sup.SetStateChangeCallback(reporter.ReportStateChange)

	sup.LaunchAll(specs)

	// Nothing survived launch: there is nothing to wait for.
	if sup.RunningCount() > 0 {
		reason := bridge.WaitForTermination(ctx)
		logging.Info("Main", "Shutting down: %s", reason)
	}

	result := sup.StopAll(context.Background())
	reporter.Summary(result)
	return resultError(result)
}

// runTUI launches the tunnels behind the interactive table. Quitting
// the TUI, an OS signal, or a child crash all converge on the same
// shutdown path.
func runTUI(
	ctx context.Context,
	sup *supervisor.Supervisor,
	bridge *supervisor.SignalBridge,
	reporter *reporting.ConsoleReporter,
	specs []tunnel.Spec,
	level logging.LogLevel,
) error {
	logCh := logging.InitForTUI(level)

	sup.LaunchAll(specs)

	app := tui.New(rootCmd.Version, sup, logCh)

	waitCtx, cancelWait := context.WithCancel(ctx)
	go func() {
		if reason := bridge.WaitForTermination(waitCtx); reason != supervisor.ReasonCancelled {
			app.Quit()
		}
	}()

	runErr := app.Run()
	cancelWait()

	result := sup.StopAll(context.Background())

	// Back to plain console output for the final summary.
	logging.CloseTUIChannel()
	logging.InitForCLI(level, os.Stderr)
	reporter.Summary(result)

	if runErr != nil {
		return runErr
	}
	return resultError(result)
}

// resultError maps a failed aggregate outcome to the command error so
// the process exits non-zero.
func resultError(result supervisor.ShutdownResult) error {
	if result.OK() {
		return nil
	}
	return fmt.Errorf("one or more tunnels did not run cleanly")
}
