// Package config loads rtun's layered YAML configuration. Defaults are
// built in, a user file at ~/.config/rtun/config.yaml overrides them,
// and a project file at ./.rtun/config.yaml overrides both.
package config
