// Package paths provides a single source of truth for mindshell file paths.
// All path helpers honor environment variable overrides for isolated testing.
//
// Path resolution precedence:
//  1. MINDSHELL_WORK_DIR sets the application working directory directly
//  2. MINDSHELL_DIR sets the base directory (derives config, log and app data)
//  3. The per-user configuration root from os.UserConfigDir
//     (%AppData%, ~/Library/Application Support, $XDG_CONFIG_HOME or ~/.config)
package paths

import (
	"os"
	"path/filepath"
)

// Environment variable names for path overrides.
const (
	// EnvDir is the base directory override (e.g., /tmp/mindshell-e2e).
	EnvDir = "MINDSHELL_DIR"

	// EnvWorkDir overrides the application working directory directly.
	EnvWorkDir = "MINDSHELL_WORK_DIR"
)

// AppIdentifier is the fixed sub-path of the per-user data root that holds
// the cloned application. The application itself reads its settings from
// the same directory.
const AppIdentifier = "com.mindcraft.app"

// BaseDir returns the mindshell directory for config and logs
// (<user config dir>/mindshell by default). Honors MINDSHELL_DIR.
func BaseDir() (string, error) {
	if dir := os.Getenv(EnvDir); dir != "" {
		return dir, nil
	}
	root, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "mindshell"), nil
}

// DataRoot returns the per-user application data root.
// When MINDSHELL_DIR is set, returns MINDSHELL_DIR/appdata instead.
func DataRoot() (string, error) {
	if dir := os.Getenv(EnvDir); dir != "" {
		return filepath.Join(dir, "appdata"), nil
	}
	return os.UserConfigDir()
}

// WorkDir returns the application working directory
// (<data root>/com.mindcraft.app).
// Precedence: MINDSHELL_WORK_DIR > MINDSHELL_DIR/appdata/... > user config dir.
func WorkDir() (string, error) {
	if dir := os.Getenv(EnvWorkDir); dir != "" {
		return dir, nil
	}
	root, err := DataRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, AppIdentifier), nil
}

// ConfigPath returns the path to the mindshell config file.
func ConfigPath() (string, error) {
	base, err := BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "config.toml"), nil
}

// LogPath returns the log file path. Falls back to the temp dir when no
// user directory can be resolved.
func LogPath() string {
	base, err := BaseDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "mindshell.log")
	}
	return filepath.Join(base, "mindshell.log")
}
