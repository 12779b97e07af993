// Package toolcheck reports whether executables resolve on the system path.
package toolcheck

import (
	"log/slog"
	"os/exec"
)

// Checker resolves executables on PATH.
type Checker struct {
	// LookPath resolves a name to a path. Defaults to exec.LookPath.
	LookPath func(name string) (string, error)
}

// New returns a Checker backed by exec.LookPath.
func New() *Checker {
	return &Checker{LookPath: exec.LookPath}
}

// IsAvailable reports whether name resolves to an executable. Any lookup
// error counts as unavailable.
func (c *Checker) IsAvailable(name string) bool {
	lookPath := c.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	path, err := lookPath(name)
	if err != nil {
		slog.Debug("tool not found", "component", "toolcheck", "tool", name, "error", err)
		return false
	}
	slog.Debug("tool found", "component", "toolcheck", "tool", name, "path", path)
	return true
}
