package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultConfigDir is the default directory name for infrakit configs
	DefaultConfigDir = ".infrakit"
	// DefaultConfigName is the default config file name
	DefaultConfigName = "config.yaml"
	// ConfigDirEnvVar overrides the config directory
	ConfigDirEnvVar = "INFRAKIT_CONFIG_DIR"
	// ConfigEnvVar names the config file to use
	ConfigEnvVar = "INFRAKIT_CONFIG"
)

// GetConfigDir returns the infrakit configuration directory path
// Defaults to ~/.infrakit/ unless overridden by environment
func GetConfigDir() (string, error) {
	if dir := os.Getenv(ConfigDirEnvVar); dir != "" {
		return dir, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, DefaultConfigDir), nil
}

// FindConfig finds a configuration file by name
// If name is an absolute or explicitly relative path, returns it as-is
// If name is a filename, looks in the config directory
// If name is empty, looks for the default config
func FindConfig(name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "./") || strings.HasPrefix(name, "../") {
		if _, err := os.Stat(name); err != nil {
			if os.IsNotExist(err) {
				return "", fmt.Errorf("config file not found: %s", name)
			}
			return "", fmt.Errorf("failed to stat config file %s: %w", name, err)
		}
		return name, nil
	}

	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if name == "" {
		name = DefaultConfigName
	}

	if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
		name += ".yaml"
	}

	configPath := filepath.Join(configDir, name)

	if _, err := os.Stat(configPath); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("config file not found: %s", configPath)
		}
		return "", fmt.Errorf("failed to stat config file %s: %w", configPath, err)
	}

	return configPath, nil
}

// ListConfigs returns a list of all available configuration files
func ListConfigs() ([]string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configDir); err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to access config directory %s: %w", configDir, err)
	}

	entries, err := os.ReadDir(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory %s: %w", configDir, err)
	}

	var configs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			configs = append(configs, filepath.Join(configDir, name))
		}
	}

	return configs, nil
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory %s: %w", configDir, err)
	}

	return configDir, nil
}
