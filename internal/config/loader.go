package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd

const (
	userConfigDir    = ".config/rtun"
	projectConfigDir = ".rtun"
	configFileName   = "config.yaml"
)

// LoadConfig loads the rtun configuration by layering default, user,
// and project settings. Missing config files are not an error.
func LoadConfig() (RtunConfig, error) {
	config := GetDefaultConfig()

	userConfigPath, err := getUserConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not determine user config path: %v\n", err)
	} else {
		if _, err := os.Stat(userConfigPath); !os.IsNotExist(err) {
			userConfig, err := loadConfigFromFile(userConfigPath)
			if err != nil {
				return RtunConfig{}, fmt.Errorf("error loading user config from %s: %w", userConfigPath, err)
			}
			config = mergeConfigs(config, userConfig)
		}
	}

	projectConfigPath, err := getProjectConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not determine project config path: %v\n", err)
	} else {
		if _, err := os.Stat(projectConfigPath); !os.IsNotExist(err) {
			projectConfig, err := loadConfigFromFile(projectConfigPath)
			if err != nil {
				return RtunConfig{}, fmt.Errorf("error loading project config from %s: %w", projectConfigPath, err)
			}
			config = mergeConfigs(config, projectConfig)
		}
	}

	return config, nil
}

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

// loadConfigFromFile loads an RtunConfig from a YAML file.
func loadConfigFromFile(filePath string) (RtunConfig, error) {
	var config RtunConfig
	data, err := os.ReadFile(filePath)
	if err != nil {
		return RtunConfig{}, err
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return RtunConfig{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return config, nil
}

// mergeConfigs overlays non-zero fields of overlay onto base.
func mergeConfigs(base, overlay RtunConfig) RtunConfig {
	merged := base

	if overlay.GlobalSettings.LogLevel != "" {
		merged.GlobalSettings.LogLevel = overlay.GlobalSettings.LogLevel
	}
	if overlay.SSH.Binary != "" {
		merged.SSH.Binary = overlay.SSH.Binary
	}
	if overlay.SSH.DefaultUser != "" {
		merged.SSH.DefaultUser = overlay.SSH.DefaultUser
	}
	if overlay.SSH.DefaultHost != "" {
		merged.SSH.DefaultHost = overlay.SSH.DefaultHost
	}
	if overlay.Shutdown.StopTimeout > 0 {
		merged.Shutdown.StopTimeout = overlay.Shutdown.StopTimeout
	}
	if overlay.Shutdown.KillGrace > 0 {
		merged.Shutdown.KillGrace = overlay.Shutdown.KillGrace
	}

	return merged
}
