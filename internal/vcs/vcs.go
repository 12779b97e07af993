// Package vcs materializes the application repository with git.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/tessro/mindshell/internal/sysproc"
)

// ErrCloneFailed is matched by every *CloneError.
var ErrCloneFailed = errors.New("clone failed")

// CloneError describes a git clone that exited unsuccessfully.
type CloneError struct {
	URL    string
	Branch string
	Dest   string
	Output string
	Err    error
}

func (e *CloneError) Error() string {
	msg := fmt.Sprintf("git clone -b %s %s %s: %v", e.Branch, e.URL, e.Dest, e.Err)
	if e.Output != "" {
		msg += "\n" + e.Output
	}
	return msg
}

func (e *CloneError) Unwrap() []error {
	return []error{ErrCloneFailed, e.Err}
}

// Cloner runs git.
type Cloner struct {
	// Git is the git executable. Defaults to "git".
	Git string
	// Command builds the invocation. Defaults to sysproc.Command.
	Command func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// Clone checks out branch of url into dest. dest may be an existing empty
// directory.
func (c *Cloner) Clone(ctx context.Context, url, branch, dest string) error {
	git := c.Git
	if git == "" {
		git = "git"
	}
	build := c.Command
	if build == nil {
		build = sysproc.Command
	}

	args := CloneArgs(url, branch, dest)
	slog.Info("Cloner.Clone: cloning", "component", "vcs", "url", url, "branch", branch, "dest", dest)

	output, err := build(ctx, git, args...).CombinedOutput()
	if err != nil {
		return &CloneError{
			URL:    url,
			Branch: branch,
			Dest:   dest,
			Output: strings.TrimSpace(string(output)),
			Err:    err,
		}
	}
	return nil
}

// CloneArgs returns the git arguments for a single-branch checkout.
func CloneArgs(url, branch, dest string) []string {
	args := []string{"clone"}
	if branch != "" {
		args = append(args, "-b", branch)
	}
	return append(args, url, dest)
}
