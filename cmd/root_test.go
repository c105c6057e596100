package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePorts_Valid(t *testing.T) {
	ports, err := parsePorts([]string{"11434", "10600", "8088"})
	require.NoError(t, err)
	assert.Equal(t, []int{11434, 10600, 8088}, ports)
}

func TestParsePorts_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"not a number", []string{"8080", "http"}},
		{"empty string", []string{""}},
		{"float", []string{"80.80"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parsePorts(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestRootCmd_RequiresArgs(t *testing.T) {
	err := rootCmd.Args(rootCmd, []string{})
	assert.Error(t, err)

	err = rootCmd.Args(rootCmd, []string{"8080"})
	assert.NoError(t, err)
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, sub := range rootCmd.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["version"])
	assert.True(t, names["self-update"])
}
