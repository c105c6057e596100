package config

import (
	"time"
)

const (
	// DefaultStopTimeout is how long the coordinator waits for a tunnel
	// to exit after the graceful termination request.
	DefaultStopTimeout = 5 * time.Second

	// DefaultKillGrace is the additional wait after escalating to a
	// forceful kill.
	DefaultKillGrace = 2 * time.Second
)

// GetDefaultConfig returns the built-in configuration. User and project
// config files are layered on top of this by LoadConfig.
func GetDefaultConfig() RtunConfig {
	return RtunConfig{
		GlobalSettings: GlobalSettings{
			LogLevel: "info",
		},
		SSH: SSHSettings{
			Binary:      "ssh",
			DefaultUser: "user",
			DefaultHost: "localhost",
		},
		Shutdown: ShutdownConfig{
			StopTimeout: DefaultStopTimeout,
			KillGrace:   DefaultKillGrace,
		},
	}
}
