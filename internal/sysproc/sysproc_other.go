//go:build !windows

package sysproc

import "os/exec"

// HideWindow is a no-op outside Windows: children share the parent's
// terminal and never open a window of their own.
func HideWindow(cmd *exec.Cmd) {}
