package config

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/tessro/mindshell/internal/installer"
)

// Validation errors.
var (
	ErrEmptyRemoteURL         = errors.New("remote URL cannot be empty")
	ErrInvalidRemoteURL       = errors.New("remote URL is not a valid git URL")
	ErrEmptyToolName          = errors.New("tool name cannot be empty")
	ErrInvalidToolName        = errors.New("tool name must be a bare executable name")
	ErrEmptyCommand           = errors.New("command cannot be empty")
	ErrMissingPackageArgument = errors.New("installer args must contain the {package} placeholder")
	ErrInvalidLogLevel        = errors.New("log level must be debug, info, warn, or error")
)

// gitHTTPSRegex matches HTTPS git URLs.
var gitHTTPSRegex = regexp.MustCompile(`^https?://[^/]+/[^/]+/.+`)

// gitSSHRegex matches SSH git URLs.
var gitSSHRegex = regexp.MustCompile(`^git@[^:]+:.+/.+`)

// gitFileRegex matches file:// git URLs (used for local testing).
var gitFileRegex = regexp.MustCompile(`^file://.+`)

// validToolNameRegex matches executable names without path separators.
var validToolNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._+-]*$`)

var validLogLevels = []string{"debug", "info", "warn", "warning", "error"}

// ValidationError wraps a validation error with context.
type ValidationError struct {
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %s (got %q)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidateRemoteURL validates a git remote URL.
func ValidateRemoteURL(url string) error {
	if url == "" {
		return &ValidationError{
			Field:   "repository.url",
			Message: "cannot be empty",
			Err:     ErrEmptyRemoteURL,
		}
	}

	url = strings.TrimSpace(url)

	if gitHTTPSRegex.MatchString(url) || gitSSHRegex.MatchString(url) || gitFileRegex.MatchString(url) {
		return nil
	}

	return &ValidationError{
		Field:   "repository.url",
		Value:   url,
		Message: "must be a valid git URL (https://, git@, or file://)",
		Err:     ErrInvalidRemoteURL,
	}
}

// ValidateToolName validates an executable name looked up on PATH.
func ValidateToolName(field, name string) error {
	if name == "" {
		return &ValidationError{
			Field:   field,
			Message: "cannot be empty",
			Err:     ErrEmptyToolName,
		}
	}

	if !validToolNameRegex.MatchString(name) {
		return &ValidationError{
			Field:   field,
			Value:   name,
			Message: "must be an executable name without path separators",
			Err:     ErrInvalidToolName,
		}
	}

	return nil
}

// ValidateCommand validates a command section.
func ValidateCommand(field string, c CommandConfig) error {
	if strings.TrimSpace(c.Command) == "" {
		return &ValidationError{
			Field:   field + ".command",
			Message: "cannot be empty",
			Err:     ErrEmptyCommand,
		}
	}
	return nil
}

// ValidateInstallerArgs checks that the package placeholder is present.
func ValidateInstallerArgs(args []string) error {
	for _, a := range args {
		if strings.Contains(a, installer.PackagePlaceholder) {
			return nil
		}
	}
	return &ValidationError{
		Field:   "installer.args",
		Value:   strings.Join(args, " "),
		Message: "must contain " + installer.PackagePlaceholder,
		Err:     ErrMissingPackageArgument,
	}
}

// ValidateLogLevel validates a log level name.
func ValidateLogLevel(level string) error {
	if level == "" || slices.Contains(validLogLevels, strings.ToLower(level)) {
		return nil
	}
	return &ValidationError{
		Field:   "log.level",
		Value:   level,
		Message: "must be debug, info, warn, or error",
		Err:     ErrInvalidLogLevel,
	}
}

// Validate checks the whole configuration and returns the first problem.
func (c *Config) Validate() error {
	if err := ValidateRemoteURL(c.Repository.URL); err != nil {
		return err
	}

	tools := []struct{ field, name string }{
		{"tools.vcs", c.Tools.VCS},
		{"tools.runtime", c.Tools.Runtime},
		{"tools.package_manager", c.Tools.PackageManager},
	}
	for _, tool := range tools {
		if err := ValidateToolName(tool.field, tool.name); err != nil {
			return err
		}
	}

	if err := ValidateCommand("installer", c.Installer); err != nil {
		return err
	}
	if err := ValidateInstallerArgs(c.Installer.Args); err != nil {
		return err
	}
	if err := ValidateCommand("dependencies", c.Dependencies); err != nil {
		return err
	}
	if err := ValidateCommand("launch", c.Launch); err != nil {
		return err
	}

	return ValidateLogLevel(c.Log.Level)
}
