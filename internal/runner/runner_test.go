//go:build !windows

package runner

import (
	"context"
	"errors"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/tessro/mindshell/internal/event"
	"github.com/tessro/mindshell/internal/registry"
)

func shell(script string) Command {
	return Command{
		Name:     "sh",
		Args:     []string{"-c", script},
		OutTopic: event.TopicNodeOutput,
		ErrTopic: event.TopicNodeError,
	}
}

// waitFor waits for the child to exit and its output to drain.
func waitFor(t *testing.T, h *Handle) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	code, err := h.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	select {
	case <-h.Drained():
	case <-ctx.Done():
		t.Fatal("output did not drain")
	}
	return code
}

func TestSpawnRegistersAndForwards(t *testing.T) {
	reg := registry.New()
	r := New(reg)
	var rec event.Recorder

	h, err := r.Spawn(shell("echo a; echo b; echo oops >&2; echo c"), &rec)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}

	if h.PID() == 0 {
		t.Fatal("expected non-zero PID")
	}
	if !reg.Contains(h.PID()) {
		t.Errorf("PID %d not in registry snapshot %v", h.PID(), reg.Snapshot())
	}

	if code := waitFor(t, h); code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}

	out := rec.Lines(event.TopicNodeOutput)
	want := []string{"a", "b", "c"}
	if len(out) != len(want) {
		t.Fatalf("stdout lines = %q, want %q", out, want)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("stdout line %d = %q, want %q", i, out[i], want[i])
		}
	}
	if errs := rec.Lines(event.TopicNodeError); len(errs) != 1 || errs[0] != "oops" {
		t.Errorf("stderr lines = %q, want [oops]", errs)
	}

	// Natural exit does not remove the PID: the registry is best effort.
	if !reg.Contains(h.PID()) {
		t.Error("PID removed from registry on natural exit")
	}
	if !r.Exited(h.PID()) {
		t.Error("Exited() = false after Wait returned")
	}
}

func TestSpawnDoesNotBlock(t *testing.T) {
	reg := registry.New()
	r := New(reg)

	start := time.Now()
	h, err := r.Spawn(shell("exec sleep 30"), event.Discard)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	defer func() {
		_ = syscall.Kill(int(h.PID()), syscall.SIGKILL)
		waitFor(t, h)
	}()

	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Spawn() took %v, expected to return immediately", elapsed)
	}
	if r.Exited(h.PID()) {
		t.Error("Exited() = true for a running child")
	}
	select {
	case <-h.Done():
		t.Error("Done() closed while child is running")
	default:
	}
}

func TestSpawnExitCode(t *testing.T) {
	r := New(registry.New())

	h, err := r.Spawn(shell("exit 3"), event.Discard)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	if code := waitFor(t, h); code != 3 {
		t.Errorf("exit code = %d, want 3", code)
	}
	if h.ExitCode() != 3 {
		t.Errorf("ExitCode() = %d, want 3", h.ExitCode())
	}
}

func TestSpawnKilledChild(t *testing.T) {
	r := New(registry.New())

	h, err := r.Spawn(shell("echo ready; exec sleep 30"), event.Discard)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	if err := syscall.Kill(int(h.PID()), syscall.SIGKILL); err != nil {
		t.Fatalf("kill: %v", err)
	}
	if code := waitFor(t, h); code != -1 {
		t.Errorf("exit code = %d, want -1 for a signalled child", code)
	}
}

func TestSpawnFailure(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
	}{
		{"missing executable", Command{Name: "mindshell-definitely-not-installed"}},
		{"missing working dir", Command{Name: "sh", Args: []string{"-c", "true"}, Dir: filepath.Join(t.TempDir(), "nope")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := registry.New()
			r := New(reg)

			h, err := r.Spawn(tt.cmd, event.Discard)
			if err == nil {
				t.Fatalf("Spawn() = %v, want error", h)
			}
			if !errors.Is(err, ErrSpawnFailed) {
				t.Errorf("error %v does not match ErrSpawnFailed", err)
			}
			var spawnErr *SpawnError
			if !errors.As(err, &spawnErr) || spawnErr.Name != tt.cmd.Name {
				t.Errorf("error %v is not a *SpawnError for %q", err, tt.cmd.Name)
			}
			if reg.Len() != 0 {
				t.Errorf("registry = %v, want empty", reg.Snapshot())
			}
		})
	}
}

func TestSpawnEnvAndDir(t *testing.T) {
	dir := t.TempDir()
	r := New(registry.New())
	var rec event.Recorder

	c := shell(`echo "$MINDSHELL_TEST_VAR"; pwd`)
	c.Dir = dir
	c.Env = []string{"MINDSHELL_TEST_VAR=hello"}

	h, err := r.Spawn(c, &rec)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	waitFor(t, h)

	out := rec.Lines(event.TopicNodeOutput)
	if len(out) != 2 || out[0] != "hello" {
		t.Fatalf("stdout = %q", out)
	}
	got, _ := filepath.EvalSymlinks(out[1])
	want, _ := filepath.EvalSymlinks(dir)
	if got != want {
		t.Errorf("pwd = %q, want %q", got, want)
	}
}

func TestWaitContextCancelled(t *testing.T) {
	r := New(registry.New())

	h, err := r.Spawn(shell("exec sleep 30"), event.Discard)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	defer func() {
		_ = syscall.Kill(int(h.PID()), syscall.SIGKILL)
		waitFor(t, h)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := h.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want DeadlineExceeded", err)
	}
}

func TestShutdownJoinsForwarders(t *testing.T) {
	r := New(registry.New())

	for i := 0; i < 3; i++ {
		if _, err := r.Spawn(shell("echo x"), event.Discard); err != nil {
			t.Fatalf("Spawn() error = %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
}

func TestShutdownTimesOut(t *testing.T) {
	r := New(registry.New())

	h, err := r.Spawn(shell("exec sleep 30"), event.Discard)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	defer func() {
		_ = syscall.Kill(int(h.PID()), syscall.SIGKILL)
		waitFor(t, h)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := r.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Shutdown() error = %v, want DeadlineExceeded", err)
	}
}

func TestForget(t *testing.T) {
	r := New(registry.New())

	h, err := r.Spawn(shell("true"), event.Discard)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	waitFor(t, h)

	r.Forget(h.PID())

	if _, ok := r.Handle(h.PID()); ok {
		t.Error("handle still present after Forget")
	}
	if r.Exited(h.PID()) {
		t.Error("Exited() = true for a forgotten pid")
	}
}

func TestForgetUntracked(t *testing.T) {
	reg := registry.New()
	r := New(reg)

	swept, err := r.Spawn(shell("true"), event.Discard)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	exitedTracked, err := r.Spawn(shell("true"), event.Discard)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	running, err := r.Spawn(shell("exec sleep 30"), event.Discard)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	waitFor(t, swept)
	waitFor(t, exitedTracked)
	reg.Remove(swept.PID())
	reg.Remove(running.PID())

	got := r.ForgetUntracked(reg.Contains)
	if len(got) != 1 || got[0] != swept.PID() {
		t.Errorf("ForgetUntracked() = %v, want [%d]", got, swept.PID())
	}
	if !r.Exited(exitedTracked.PID()) {
		t.Error("exited handle still tracked in the registry was forgotten")
	}
	if _, ok := r.Handle(running.PID()); !ok {
		t.Error("running handle forgotten")
	}

	_ = syscall.Kill(int(running.PID()), syscall.SIGKILL)
	waitFor(t, running)
}

func TestWaitReturnsWhenChildExitsBeforeItsPipesClose(t *testing.T) {
	r := New(registry.New())
	r.DrainGrace = 100 * time.Millisecond
	var rec event.Recorder

	// The background sleep inherits stdout and stderr and outlives sh.
	h, err := r.Spawn(shell("sleep 5 & echo hi; exit 3"), &rec)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	code, err := h.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait() error = %v, want the exit of sh", err)
	}
	if code != 3 {
		t.Errorf("exit code = %d, want 3", code)
	}
	if !r.Exited(h.PID()) {
		t.Error("Exited() = false after sh exited")
	}

	select {
	case <-h.Drained():
	case <-ctx.Done():
		t.Fatal("Drained() not closed after the drain grace")
	}
	if out := rec.Lines(event.TopicNodeOutput); len(out) != 1 || out[0] != "hi" {
		t.Errorf("stdout lines = %q, want [hi]", out)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer shutdownCancel()
	if err := r.Shutdown(shutdownCtx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
