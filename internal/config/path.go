// Package config resolves the tcg settings layered by viper: config file,
// TCG_ environment variables, flags and defaults.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// AppDir is the directory below the user's config home holding tcg files.
const AppDir = "tcg"

// ExpandPath expands a leading ~ and $VAR references in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}

	return os.ExpandEnv(path)
}

// Dir returns the tcg config directory, ~/.config/tcg by default.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, AppDir), nil
}
