package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// Helper function to create a temporary config file
func createTempConfigFile(t *testing.T, dir string, filename string, content RtunConfig) string {
	t.Helper()
	tempFilePath := filepath.Join(dir, filename)
	data, err := yaml.Marshal(&content)
	require.NoError(t, err)
	err = os.WriteFile(tempFilePath, data, 0644)
	require.NoError(t, err)
	return tempFilePath
}

func mockConfigPaths(t *testing.T, userPath, projectPath string) {
	t.Helper()
	originalGetUserConfigPath := getUserConfigPath
	originalGetProjectConfigPath := getProjectConfigPath
	t.Cleanup(func() {
		getUserConfigPath = originalGetUserConfigPath
		getProjectConfigPath = originalGetProjectConfigPath
	})
	getUserConfigPath = func() (string, error) { return userPath, nil }
	getProjectConfigPath = func() (string, error) { return projectPath, nil }
}

func TestLoadConfig_DefaultOnly(t *testing.T) {
	tempDir := t.TempDir()

	// Point to non-existent files so only defaults apply
	mockConfigPaths(t,
		filepath.Join(tempDir, "non-existent-user-config.yaml"),
		filepath.Join(tempDir, "non-existent-project-config.yaml"))

	loadedConfig, err := LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), loadedConfig)
}

func TestLoadConfig_UserOverride(t *testing.T) {
	tempDir := t.TempDir()

	userConfig := RtunConfig{
		SSH: SSHSettings{
			DefaultUser: "deploy",
			DefaultHost: "bastion.internal",
		},
	}
	userPath := createTempConfigFile(t, tempDir, "user.yaml", userConfig)
	mockConfigPaths(t, userPath, filepath.Join(tempDir, "no-project.yaml"))

	loadedConfig, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "deploy", loadedConfig.SSH.DefaultUser)
	assert.Equal(t, "bastion.internal", loadedConfig.SSH.DefaultHost)
	// Fields not set in the user file keep their defaults
	assert.Equal(t, "ssh", loadedConfig.SSH.Binary)
	assert.Equal(t, DefaultStopTimeout, loadedConfig.Shutdown.StopTimeout)
}

func TestLoadConfig_ProjectOverridesUser(t *testing.T) {
	tempDir := t.TempDir()

	userConfig := RtunConfig{
		SSH: SSHSettings{DefaultHost: "user-host"},
		Shutdown: ShutdownConfig{
			StopTimeout: 10 * time.Second,
		},
	}
	projectConfig := RtunConfig{
		SSH: SSHSettings{DefaultHost: "project-host"},
	}
	userPath := createTempConfigFile(t, tempDir, "user.yaml", userConfig)
	projectPath := createTempConfigFile(t, tempDir, "project.yaml", projectConfig)
	mockConfigPaths(t, userPath, projectPath)

	loadedConfig, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "project-host", loadedConfig.SSH.DefaultHost)
	// User layer survives where project file is silent
	assert.Equal(t, 10*time.Second, loadedConfig.Shutdown.StopTimeout)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	tempDir := t.TempDir()

	userPath := filepath.Join(tempDir, "bad.yaml")
	require.NoError(t, os.WriteFile(userPath, []byte("ssh: [not a mapping"), 0644))
	mockConfigPaths(t, userPath, filepath.Join(tempDir, "no-project.yaml"))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestMergeConfigs_ZeroValuesDoNotOverride(t *testing.T) {
	base := GetDefaultConfig()
	merged := mergeConfigs(base, RtunConfig{})
	assert.Equal(t, base, merged)
}
