package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var (
	flagUser        string
	flagHost        string
	flagNoTUI       bool
	flagLogLevel    string
	flagStopTimeout time.Duration
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rtun <port> [port...]",
	Short: "Supervise SSH tunnels for a set of local ports",
	Long: `rtun starts one ssh process per requested port, forwarding the local
port to the same port on the remote host, and supervises all of them
until you quit. Every tunnel is torn down together on q, Ctrl-C,
SIGTERM, or when any tunnel process dies unexpectedly.

By default a full-screen table shows the live state of each tunnel;
use --no-tui for plain console output (useful under a supervisor or in
scripts).`,
	Args: cobra.MinimumNArgs(1),
	// SilenceUsage is set to true to prevent printing usage message on
	// errors handled by us (invalid ports, failed tunnels)
	SilenceUsage: true,
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "rtun version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

func init() {
	// Assigned here rather than in the literal to avoid an
	// initialization cycle (runRoot -> runTUI -> rootCmd.Version).
	rootCmd.RunE = runRoot

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())

	rootCmd.Flags().StringVar(&flagUser, "user", "", "ssh user (default from config, falls back to \"user\")")
	rootCmd.Flags().StringVar(&flagHost, "host", "", "ssh host (default from config, falls back to \"localhost\")")
	rootCmd.Flags().BoolVar(&flagNoTUI, "no-tui", false, "plain console output instead of the interactive table")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.Flags().DurationVar(&flagStopTimeout, "stop-timeout", 0, "how long to wait for tunnels to exit before killing them")
}

// parsePorts turns positional arguments into port numbers. Range
// validation happens in tunnel.BuildSpecs.
func parsePorts(args []string) ([]int, error) {
	ports := make([]int, 0, len(args))
	for _, arg := range args {
		port, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid port %q: not a number", arg)
		}
		ports = append(ports, port)
	}
	return ports, nil
}
