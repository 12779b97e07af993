// Package sysproc builds child process commands with platform-specific
// process attributes applied.
package sysproc

import (
	"context"
	"os/exec"
)

// Command returns an exec.Cmd for name and args bound to ctx, with the
// console window suppressed on platforms that would otherwise open one.
func Command(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	HideWindow(cmd)
	return cmd
}
