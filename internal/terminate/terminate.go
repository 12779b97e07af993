// Package terminate implements sweep termination: a request to stop any one
// tracked process forcefully stops every tracked process.
package terminate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/tessro/mindshell/internal/registry"
	"github.com/tessro/mindshell/internal/sysproc"
)

// ErrKillFailed is matched by every KillError.
var ErrKillFailed = errors.New("kill failed")

// KillError reports a single identifier that could not be killed.
type KillError struct {
	PID registry.PID
	Err error
}

func (e *KillError) Error() string {
	return fmt.Sprintf("failed to kill process %s: %v", e.PID, e.Err)
}

// Unwrap exposes both ErrKillFailed and the underlying cause.
func (e *KillError) Unwrap() []error {
	return []error{ErrKillFailed, e.Err}
}

// Killer forcefully stops a process by identifier.
type Killer interface {
	Kill(ctx context.Context, pid registry.PID) error
}

// KillerFunc adapts a function to Killer.
type KillerFunc func(ctx context.Context, pid registry.PID) error

// Kill calls f(ctx, pid).
func (f KillerFunc) Kill(ctx context.Context, pid registry.PID) error {
	return f(ctx, pid)
}

// ExecKiller kills by running the platform's forceful kill command:
// "taskkill /PID <pid> /F" on Windows and "kill -9 <pid>" elsewhere.
type ExecKiller struct {
	// Command builds the invocation. Defaults to sysproc.Command.
	Command func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// Kill implements Killer.
func (k ExecKiller) Kill(ctx context.Context, pid registry.PID) error {
	build := k.Command
	if build == nil {
		build = sysproc.Command
	}

	name, args := KillCommand(runtime.GOOS, pid)
	out, err := build(ctx, name, args...).CombinedOutput()
	if err != nil {
		if detail := oneLine(string(out)); detail != "" {
			return fmt.Errorf("%s: %w: %s", name, err, detail)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// KillCommand returns the forceful kill invocation for goos.
func KillCommand(goos string, pid registry.PID) (string, []string) {
	if goos == "windows" {
		return "taskkill", []string{"/PID", pid.String(), "/F"}
	}
	return "kill", []string{"-9", pid.String()}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Terminator sweeps the registry.
type Terminator struct {
	registry *registry.Registry
	killer   Killer

	// sweepMu serializes sweeps; the registry lock is never held across a
	// kill.
	sweepMu sync.Mutex
}

// New creates a Terminator over reg.
func New(reg *registry.Registry, killer Killer) *Terminator {
	return &Terminator{
		registry: reg,
		killer:   killer,
	}
}

// Terminate adds requested to the registry, then forcefully kills every
// tracked process one at a time, then clears the registry whether or not
// the kills succeeded. It returns nil if every kill succeeded and otherwise
// the joined *KillError values, one per line.
func (t *Terminator) Terminate(ctx context.Context, requested registry.PID) error {
	t.sweepMu.Lock()
	defer t.sweepMu.Unlock()

	t.registry.Insert(requested)
	return t.sweepLocked(ctx, slog.With("component", "terminator", "requested", requested))
}

// Sweep is Terminate without a requested PID.
func (t *Terminator) Sweep(ctx context.Context) error {
	t.sweepMu.Lock()
	defer t.sweepMu.Unlock()

	return t.sweepLocked(ctx, slog.With("component", "terminator"))
}

func (t *Terminator) sweepLocked(ctx context.Context, log *slog.Logger) error {
	pids := t.registry.Snapshot()
	log.Info("Terminator.sweep: sweeping", "count", len(pids))

	var errs []error
	for _, pid := range pids {
		if err := t.killer.Kill(ctx, pid); err != nil {
			log.Warn("Terminator.sweep: kill failed", "pid", pid, "error", err)
			errs = append(errs, &KillError{PID: pid, Err: err})
			continue
		}
		log.Debug("Terminator.sweep: killed", "pid", pid)
	}

	t.registry.Clear()
	return errors.Join(errs...)
}
