// Package app wires the process lifecycle components into the application
// context shared by the CLI and the TUI.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tessro/mindshell/internal/config"
	"github.com/tessro/mindshell/internal/event"
	"github.com/tessro/mindshell/internal/id"
	"github.com/tessro/mindshell/internal/paths"
	"github.com/tessro/mindshell/internal/provision"
	"github.com/tessro/mindshell/internal/registry"
	"github.com/tessro/mindshell/internal/runner"
	"github.com/tessro/mindshell/internal/settings"
	"github.com/tessro/mindshell/internal/sysproc"
	"github.com/tessro/mindshell/internal/terminate"
)

// Provisioner prepares the working directory.
type Provisioner interface {
	Setup(ctx context.Context, sink event.Sink) error
}

// Options configures New.
type Options struct {
	// Config defaults to config.Default().
	Config *config.Config
	// WorkDir defaults to paths.WorkDir().
	WorkDir string
	// Killer defaults to an ExecKiller.
	Killer terminate.Killer
	// Provisioner defaults to a provision.Provisioner built from Config.
	Provisioner Provisioner
}

// App owns the process registry and every component that shares it.
type App struct {
	cfg     *config.Config
	workDir string

	registry    *registry.Registry
	runner      *runner.Runner
	terminator  *terminate.Terminator
	provisioner Provisioner
	settings    *settings.Store
	bus         *event.Bus

	setupGroup singleflight.Group
}

// New builds an App.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	workDir := opts.WorkDir
	if workDir == "" {
		dir, err := paths.WorkDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve working directory: %w", err)
		}
		workDir = dir
	}

	killer := opts.Killer
	if killer == nil {
		killer = terminate.ExecKiller{Command: sysproc.Command}
	}

	reg := registry.New()
	r := runner.New(reg)

	a := &App{
		cfg:        cfg,
		workDir:    workDir,
		registry:   reg,
		runner:     r,
		terminator: terminate.New(reg, killer),
		settings:   settings.NewStore(workDir),
		bus:        event.NewBus(),
	}

	a.provisioner = opts.Provisioner
	if a.provisioner == nil {
		p := provision.New(cfg, reg, r)
		p.ResolveDir = func() (string, error) { return workDir, nil }
		a.provisioner = p
	}

	return a, nil
}

// Config returns the configuration the App was built with.
func (a *App) Config() *config.Config { return a.cfg }

// WorkDir returns the directory the bot application lives in.
func (a *App) WorkDir() string { return a.workDir }

// Bus returns the event bus every component emits on.
func (a *App) Bus() *event.Bus { return a.bus }

// Settings returns the store for the files in the working directory.
func (a *App) Settings() *settings.Store { return a.settings }

// Setup provisions the working directory. Concurrent calls share one run;
// that run uses the context of the call that started it.
func (a *App) Setup(ctx context.Context) error {
	log := slog.With("component", "app", "action", id.Action("setup"))

	_, err, shared := a.setupGroup.Do("setup", func() (any, error) {
		log.Info("App.Setup: provisioning", "dir", a.workDir)
		return nil, a.provisioner.Setup(ctx, a.bus)
	})
	if shared {
		log.Debug("App.Setup: joined in-flight setup")
	}
	if err != nil {
		log.Error("App.Setup: failed", "error", err)
	}
	return err
}

// Launch starts the bot application in the working directory with args
// appended to the configured launch arguments. It returns as soon as the
// process is running.
func (a *App) Launch(args ...string) (*runner.Handle, error) {
	c := runner.Command{
		Name:     a.cfg.Launch.Command,
		Args:     append(slices.Clone(a.cfg.Launch.Args), args...),
		Dir:      a.workDir,
		OutTopic: event.TopicNodeOutput,
		ErrTopic: event.TopicNodeError,
	}

	h, err := a.runner.Spawn(c, a.bus)
	if err != nil {
		return nil, err
	}
	slog.Info("App.Launch: started", "component", "app", "pid", h.PID())
	return h, nil
}

// Start runs Setup and then Launch.
func (a *App) Start(ctx context.Context, args ...string) (*runner.Handle, error) {
	if err := a.Setup(ctx); err != nil {
		return nil, err
	}
	return a.Launch(args...)
}

// Terminate kills pid and every other tracked process.
func (a *App) Terminate(ctx context.Context, pid registry.PID) error {
	log := slog.With("component", "app", "action", id.Action("terminate"), "pid", pid)
	if h, ok := a.runner.Handle(pid); ok {
		log = log.With("name", h.Name(), "uptime", time.Since(h.Started()).Round(time.Second))
	}
	log.Info("App.Terminate")
	return a.terminator.Terminate(ctx, pid)
}

// StopAll kills every tracked process.
func (a *App) StopAll(ctx context.Context) error {
	slog.Info("App.StopAll", "component", "app", "action", id.Action("stop"))
	return a.terminator.Sweep(ctx)
}

// Prune removes processes the App has seen exit from the registry and
// returns their PIDs.
func (a *App) Prune() []registry.PID {
	removed := a.registry.Prune(a.runner.Exited)
	a.runner.Forget(removed...)
	// Handles whose PIDs a sweep already cleared have nothing left to prune.
	a.runner.ForgetUntracked(a.registry.Contains)
	if len(removed) > 0 {
		slog.Debug("App.Prune: removed exited processes", "component", "app", "pids", removed)
	}
	return removed
}

// Tracked returns the tracked PIDs in ascending order.
func (a *App) Tracked() []registry.PID {
	return a.registry.Snapshot()
}

// WatchSettings emits event.TopicSettingsChanged on the bus when
// settings.json changes, until ctx is done.
func (a *App) WatchSettings(ctx context.Context) error {
	return a.settings.Watch(ctx, a.bus)
}

// Close waits for output forwarding to finish or ctx to end. Processes
// still running are left alone.
func (a *App) Close(ctx context.Context) error {
	return a.runner.Shutdown(ctx)
}
