// Package config loads and validates the mindshell configuration.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"

	"github.com/tessro/mindshell/internal/installer"
	"github.com/tessro/mindshell/internal/paths"
)

// Defaults for the application repository.
const (
	DefaultRepositoryURL = "https://github.com/Vinamra7/mindcraft.git"
	DefaultBranch        = "desktop-app"
	DefaultLogLevel      = "info"
)

// Config is the contents of config.toml.
type Config struct {
	Repository   RepositoryConfig `toml:"repository"`
	Tools        ToolsConfig      `toml:"tools"`
	Installer    CommandConfig    `toml:"installer"`
	Dependencies CommandConfig    `toml:"dependencies"`
	Launch       CommandConfig    `toml:"launch"`
	Log          LogConfig        `toml:"log"`
}

// RepositoryConfig names the repository cloned into the working directory.
type RepositoryConfig struct {
	URL    string `toml:"url"`
	Branch string `toml:"branch"`
}

// ToolsConfig names the executables setup ensures exist, and the package
// identifiers used to install them.
type ToolsConfig struct {
	VCS            string `toml:"vcs"`
	VCSPackage     string `toml:"vcs_package"`
	Runtime        string `toml:"runtime"`
	RuntimePackage string `toml:"runtime_package"`
	PackageManager string `toml:"package_manager"`
}

// CommandConfig is an executable plus arguments.
type CommandConfig struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
}

// LogConfig controls the log file.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the configuration for the running platform.
func Default() *Config {
	return DefaultFor(runtime.GOOS)
}

// DefaultFor returns the configuration for goos.
func DefaultFor(goos string) *Config {
	manager, args := installer.DefaultManager(goos)

	tools := ToolsConfig{
		VCS:            "git",
		VCSPackage:     "git",
		Runtime:        "node",
		RuntimePackage: "node",
		PackageManager: "npm",
	}
	switch goos {
	case "windows":
		tools.VCSPackage = "Git.Git"
		tools.RuntimePackage = "OpenJS.NodeJS.LTS"
	case "darwin":
	default:
		tools.RuntimePackage = "nodejs"
	}

	return &Config{
		Repository: RepositoryConfig{URL: DefaultRepositoryURL, Branch: DefaultBranch},
		Tools:      tools,
		Installer:  CommandConfig{Command: manager, Args: args},
		Dependencies: CommandConfig{
			Command: "npm",
			Args:    []string{"install"},
		},
		Launch: CommandConfig{
			Command: "node",
			Args:    []string{"main.js"},
		},
		Log: LogConfig{Level: DefaultLogLevel},
	}
}

// Path returns the path to config.toml.
func Path() (string, error) {
	return paths.ConfigPath()
}

// Load reads config.toml from the default location.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads the config at path on top of the defaults.
// A missing file yields the defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}

// Encode renders cfg as TOML.
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes cfg to path, creating the parent directory.
func (c *Config) Save(path string) error {
	data, err := c.Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// GetLogLevel returns the configured log level or the default.
func (c *Config) GetLogLevel() string {
	if c != nil && c.Log.Level != "" {
		return c.Log.Level
	}
	return DefaultLogLevel
}
