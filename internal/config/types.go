package config

import (
	"time"
)

// RtunConfig is the top-level configuration structure for rtun.
type RtunConfig struct {
	GlobalSettings GlobalSettings `yaml:"globalSettings"`
	SSH            SSHSettings    `yaml:"ssh"`
	Shutdown       ShutdownConfig `yaml:"shutdown"`
}

// GlobalSettings holds settings that are not specific to a single tunnel.
type GlobalSettings struct {
	LogLevel string `yaml:"logLevel,omitempty"` // "debug", "info", "warn", "error"
}

// SSHSettings configures how tunnel child processes are invoked.
type SSHSettings struct {
	Binary      string `yaml:"binary,omitempty"`      // ssh binary, defaults to "ssh" resolved via PATH
	DefaultUser string `yaml:"defaultUser,omitempty"` // used when --user is not given
	DefaultHost string `yaml:"defaultHost,omitempty"` // used when --host is not given
}

// ShutdownConfig bounds the coordinated shutdown sequence.
type ShutdownConfig struct {
	StopTimeout time.Duration `yaml:"stopTimeout,omitempty"` // wait for exit after SIGTERM
	KillGrace   time.Duration `yaml:"killGrace,omitempty"`   // wait for exit after SIGKILL escalation
}
