//go:build windows

package sysproc

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// HideWindow stops the child from allocating a visible console.
func HideWindow(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.HideWindow = true
	cmd.SysProcAttr.CreationFlags |= windows.CREATE_NO_WINDOW
}
