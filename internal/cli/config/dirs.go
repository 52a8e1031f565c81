// Package config provides configuration management for the leapsrp CLI tool.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "leapsrp"

// UserConfigDir returns the OS-specific user configuration directory for leapsrp.
// On Linux: ~/.config/leapsrp
// On macOS: ~/Library/Application Support/leapsrp
// On Windows: %APPDATA%\leapsrp
func UserConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}

	return filepath.Join(configDir, appName), nil
}

// UserCacheDir returns the OS-specific user cache directory for leapsrp.
// Session credentials live here.
// On Linux: ~/.cache/leapsrp
// On macOS: ~/Library/Caches/leapsrp
// On Windows: %LocalAppData%\leapsrp
func UserCacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user cache directory: %w", err)
	}

	return filepath.Join(cacheDir, appName), nil
}

// EnsureDir creates a directory and all parent directories if they don't exist.
// It sets the directory permissions to 0700 (owner read/write/execute only).
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
