// Package runner spawns child processes with piped output, records them in
// the process registry, and relays their output to an event sink.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tessro/mindshell/internal/event"
	"github.com/tessro/mindshell/internal/logging"
	"github.com/tessro/mindshell/internal/registry"
	"github.com/tessro/mindshell/internal/stream"
	"github.com/tessro/mindshell/internal/sysproc"
)

// ErrSpawnFailed is matched by every SpawnError.
var ErrSpawnFailed = errors.New("spawn failed")

// SpawnError is returned when the OS refuses to start a child.
type SpawnError struct {
	Name string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.Name, e.Err)
}

// Unwrap exposes both ErrSpawnFailed and the underlying cause.
func (e *SpawnError) Unwrap() []error {
	return []error{ErrSpawnFailed, e.Err}
}

// Command describes a child process to spawn.
type Command struct {
	// Name is the executable, resolved on PATH if it has no separator.
	Name string
	Args []string
	// Dir is the working directory. Empty means the caller's.
	Dir string
	// Env entries are appended to the parent's environment.
	Env []string

	// OutTopic and ErrTopic name the topics stdout and stderr lines are
	// emitted on.
	OutTopic string
	ErrTopic string
}

// DefaultDrainGrace is how long the reaper lets output drain after the child
// exits before closing the pipes.
const DefaultDrainGrace = 2 * time.Second

// Handle is a spawned child process.
type Handle struct {
	pid     registry.PID
	name    string
	started time.Time

	exited   chan struct{}
	drained  chan struct{}
	exitCode atomic.Int32
	// waitErr is set before exited is closed and never written after.
	waitErr error
}

// PID returns the OS process identifier.
func (h *Handle) PID() registry.PID {
	return h.pid
}

// Name returns the executable name the handle was spawned with.
func (h *Handle) Name() string {
	return h.name
}

// Started returns the spawn time.
func (h *Handle) Started() time.Time {
	return h.started
}

// Done returns a channel closed once the child has exited. Output the child
// wrote may still be in flight; see Drained.
func (h *Handle) Done() <-chan struct{} {
	return h.exited
}

// Drained returns a channel closed after Done once both output streams have
// been forwarded, or were cut off because a process the child started kept
// them open past the drain grace.
func (h *Handle) Drained() <-chan struct{} {
	return h.drained
}

// ExitCode returns the exit code, or -1 while running or when the child
// was terminated by a signal.
func (h *Handle) ExitCode() int {
	return int(h.exitCode.Load())
}

// Wait blocks until the child exits or ctx is done. It returns the exit code
// and a non-nil error only if waiting itself failed or ctx ended first.
func (h *Handle) Wait(ctx context.Context) (int, error) {
	select {
	case <-h.exited:
		return h.ExitCode(), h.waitErr
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}

// Runner spawns and supervises child processes. Forwarding goroutines are
// owned by the Runner and can be joined with Shutdown.
type Runner struct {
	registry *registry.Registry

	// DrainGrace bounds how long output may keep flowing after the child
	// exits. Defaults to DefaultDrainGrace.
	DrainGrace time.Duration

	wg sync.WaitGroup

	mu sync.Mutex
	// +checklocks:mu
	handles map[registry.PID]*Handle
}

// New creates a Runner that records spawned processes in reg.
func New(reg *registry.Registry) *Runner {
	return &Runner{
		registry: reg,
		handles:  make(map[registry.PID]*Handle),
	}
}

// Spawn starts c with stdout and stderr piped, records its PID in the
// registry and starts one forwarder per stream. It returns without waiting
// for the child to exit. If the child cannot be started nothing is
// registered and a *SpawnError is returned.
func (r *Runner) Spawn(c Command, sink event.Sink) (*Handle, error) {
	log := slog.With("component", "runner", "cmd", c.Name)

	cmd := exec.Command(c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	sysproc.HideWindow(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &SpawnError{Name: c.Name, Err: fmt.Errorf("stdout pipe: %w", err)}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		stdout.Close()
		return nil, &SpawnError{Name: c.Name, Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	log.Debug("Runner.Spawn: starting process", "args", c.Args, "dir", c.Dir)
	if err := cmd.Start(); err != nil {
		// Start closes both pipes on failure.
		log.Error("Runner.Spawn: process start failed", "error", err)
		return nil, &SpawnError{Name: c.Name, Err: err}
	}

	h := &Handle{
		pid:     registry.PID(cmd.Process.Pid),
		name:    c.Name,
		started: time.Now(),
		exited:  make(chan struct{}),
		drained: make(chan struct{}),
	}
	h.exitCode.Store(-1)

	r.registry.Insert(h.pid)
	r.mu.Lock()
	r.handles[h.pid] = h
	r.mu.Unlock()

	var g errgroup.Group
	g.Go(func() error { r.forward(h.pid, stdout, c.OutTopic, sink); return nil })
	g.Go(func() error { r.forward(h.pid, stderr, c.ErrTopic, sink); return nil })

	r.wg.Add(1)
	go r.reap(h, cmd, &g, stdout, stderr)

	log.Info("Runner.Spawn: process started", "pid", h.pid)
	return h, nil
}

// forward relays one stream until it closes. Read errors end forwarding and
// are not reported to the spawner.
func (r *Runner) forward(pid registry.PID, rc io.Reader, topic string, sink event.Sink) {
	defer logging.LogPanic("forward-"+topic, nil)

	res := stream.Forward(rc, topic, sink)

	log := slog.With("component", "runner", "pid", pid, "topic", topic)
	if res.Err != nil {
		log.Debug("stream read failed, dropping", "lines", res.Lines, "error", res.Err)
		return
	}
	log.Debug("stream closed", "lines", res.Lines)
}

// reap collects the child's exit status as soon as it exits, then waits for
// the forwarders. A process the child started may inherit the pipes and hold
// them open, so they are closed once the drain grace runs out.
func (r *Runner) reap(h *Handle, cmd *exec.Cmd, g *errgroup.Group, pipes ...io.Closer) {
	defer r.wg.Done()
	defer close(h.drained)
	defer logging.LogPanic("reap", nil)

	log := slog.With("component", "runner", "pid", h.pid)

	code := -1
	state, err := cmd.Process.Wait()
	if err != nil {
		h.waitErr = err
	} else {
		code = state.ExitCode()
	}
	h.exitCode.Store(int32(code))
	close(h.exited)
	log.Debug("process exited", "exit_code", code)

	drained := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(drained)
	}()

	grace := r.DrainGrace
	if grace <= 0 {
		grace = DefaultDrainGrace
	}
	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-drained:
		closeAll(pipes)
	case <-timer.C:
		log.Debug("output still open after exit, closing pipes", "grace", grace)
		closeAll(pipes)
		<-drained
	}
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		_ = c.Close()
	}
}

// Exited reports whether a process spawned by this Runner under pid has
// been reaped. PIDs the Runner never spawned report false.
func (r *Runner) Exited(pid registry.PID) bool {
	r.mu.Lock()
	h, ok := r.handles[pid]
	r.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case <-h.exited:
		return true
	default:
		return false
	}
}

// Handle returns the most recent handle spawned under pid.
func (r *Runner) Handle(pid registry.PID) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[pid]
	return h, ok
}

// Forget drops bookkeeping for pids that have exited.
func (r *Runner) Forget(pids ...registry.PID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, pid := range pids {
		if h, ok := r.handles[pid]; ok {
			select {
			case <-h.exited:
				delete(r.handles, pid)
			default:
			}
		}
	}
}

// ForgetUntracked drops bookkeeping for exited processes whose PID tracked
// no longer reports, such as those cleared by a terminate sweep, and
// returns the PIDs it dropped. A PID still tracked is kept so a later prune
// can see it exit.
func (r *Runner) ForgetUntracked(tracked func(registry.PID) bool) []registry.PID {
	r.mu.Lock()
	defer r.mu.Unlock()

	var pids []registry.PID
	for pid, h := range r.handles {
		select {
		case <-h.exited:
		default:
			continue
		}
		if tracked(pid) {
			continue
		}
		delete(r.handles, pid)
		pids = append(pids, pid)
	}
	return pids
}

// Shutdown waits for every forwarder and reaper to finish, or for ctx to
// end. It does not stop any child; children still running keep their
// reapers alive.
func (r *Runner) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
