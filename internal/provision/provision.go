// Package provision prepares the local runtime the bot application needs:
// required tools, the cloned repository and its installed dependencies.
package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/tessro/mindshell/internal/config"
	"github.com/tessro/mindshell/internal/event"
	"github.com/tessro/mindshell/internal/installer"
	"github.com/tessro/mindshell/internal/paths"
	"github.com/tessro/mindshell/internal/registry"
	"github.com/tessro/mindshell/internal/runner"
	"github.com/tessro/mindshell/internal/toolcheck"
	"github.com/tessro/mindshell/internal/vcs"
)

// Errors returned by Setup.
var (
	ErrToolUnavailable         = errors.New("required tool unavailable")
	ErrDependencyInstallFailed = errors.New("dependency install failed")
)

// CompletedMessage is the last setup-status line of a successful Setup.
const CompletedMessage = "Setup completed successfully!"

// ToolChecker reports whether an executable is on PATH.
type ToolChecker interface {
	IsAvailable(name string) bool
}

// Installer installs a package with the system package manager.
type Installer interface {
	Install(ctx context.Context, packageID string) error
}

// Cloner materializes a repository branch into a directory.
type Cloner interface {
	Clone(ctx context.Context, url, branch, dest string) error
}

// Spawner starts a child process and forwards its output.
type Spawner interface {
	Spawn(c runner.Command, sink event.Sink) (*runner.Handle, error)
}

// Tool is an executable setup makes sure exists.
type Tool struct {
	// Label is the human-readable name used in status messages.
	Label string
	// Name is the executable looked up on PATH.
	Name string
	// Package is the package manager identifier. Empty means the tool is
	// only checked, never installed.
	Package string
}

// Provisioner runs the setup sequence.
type Provisioner struct {
	Checker   ToolChecker
	Installer Installer
	Cloner    Cloner
	Spawner   Spawner
	Registry  *registry.Registry

	VCS            Tool
	Runtime        Tool
	PackageManager Tool

	RepositoryURL string
	Branch        string
	// Dependencies is the dependency install run in the working directory.
	Dependencies runner.Command

	// ResolveDir returns the working directory. Defaults to paths.WorkDir.
	ResolveDir func() (string, error)
}

// New builds a Provisioner from cfg using the real tool checker, package
// manager and git.
func New(cfg *config.Config, reg *registry.Registry, spawner Spawner) *Provisioner {
	checker := toolcheck.New()
	return &Provisioner{
		Checker: checker,
		Installer: &installer.Installer{
			Manager: cfg.Installer.Command,
			Args:    cfg.Installer.Args,
			Checker: checker,
		},
		Cloner:         &vcs.Cloner{Git: cfg.Tools.VCS},
		Spawner:        spawner,
		Registry:       reg,
		VCS:            Tool{Label: "Git", Name: cfg.Tools.VCS, Package: cfg.Tools.VCSPackage},
		Runtime:        Tool{Label: "Node.js", Name: cfg.Tools.Runtime, Package: cfg.Tools.RuntimePackage},
		PackageManager: Tool{Label: "npm", Name: cfg.Tools.PackageManager},
		RepositoryURL:  cfg.Repository.URL,
		Branch:         cfg.Repository.Branch,
		Dependencies: runner.Command{
			Name: cfg.Dependencies.Command,
			Args: cfg.Dependencies.Args,
		},
		ResolveDir: paths.WorkDir,
	}
}

// Setup ensures the tools exist, clones the repository if the working
// directory is missing and installs dependencies. Progress is emitted on
// event.TopicSetupStatus. The first failure stops setup; nothing already
// done is undone.
func (p *Provisioner) Setup(ctx context.Context, sink event.Sink) error {
	log := slog.With("component", "provision")
	status := func(format string, args ...any) {
		sink.Emit(event.TopicSetupStatus, fmt.Sprintf(format, args...))
	}

	log.Info("Provisioner.Setup: starting")

	if err := p.ensureTool(ctx, p.VCS, status); err != nil {
		return err
	}
	if err := p.ensureTool(ctx, p.Runtime, status); err != nil {
		return err
	}

	status("Checking if %s is installed...", p.PackageManager.Label)
	if p.Checker.IsAvailable(p.PackageManager.Name) {
		status("%s is already installed.", p.PackageManager.Label)
	} else {
		log.Warn("Provisioner.Setup: package manager not found", "tool", p.PackageManager.Name)
		status("%s not found; continuing", p.PackageManager.Name)
	}

	dir, err := p.resolveDir()
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}

	if err := p.ensureRepository(ctx, dir, status); err != nil {
		return err
	}

	if err := p.installDependencies(ctx, dir, sink, status); err != nil {
		return err
	}

	status(CompletedMessage)
	log.Info("Provisioner.Setup: completed", "dir", dir)
	return nil
}

func (p *Provisioner) ensureTool(ctx context.Context, tool Tool, status func(string, ...any)) error {
	status("Checking if %s is installed...", tool.Label)
	if p.Checker.IsAvailable(tool.Name) {
		status("%s is already installed.", tool.Label)
		return nil
	}

	if tool.Package == "" {
		return fmt.Errorf("%w: %s", ErrToolUnavailable, tool.Name)
	}

	status("%s not found. Installing %s...", tool.Label, tool.Label)
	if err := p.Installer.Install(ctx, tool.Package); err != nil {
		slog.Error("Provisioner.Setup: install failed", "component", "provision", "tool", tool.Name, "error", err)
		if errors.Is(err, installer.ErrPackageManagerUnavailable) {
			return fmt.Errorf("%w: %s: %w", ErrToolUnavailable, tool.Name, err)
		}
		return fmt.Errorf("failed to install %s: %w", tool.Name, err)
	}
	status("%s installed.", tool.Label)
	return nil
}

func (p *Provisioner) ensureRepository(ctx context.Context, dir string, status func(string, ...any)) error {
	_, err := os.Stat(dir)
	if err == nil {
		status("Directory %q already exists. Skipping clone.", dir)
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat working directory: %w", err)
	}

	status("Directory %q does not exist. Creating it...", dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create working directory: %w", err)
	}

	status("Cloning repository (branch %s) into %q...", p.Branch, dir)
	if err := p.Cloner.Clone(ctx, p.RepositoryURL, p.Branch, dir); err != nil {
		return err
	}
	return nil
}

func (p *Provisioner) installDependencies(ctx context.Context, dir string, sink event.Sink, status func(string, ...any)) error {
	c := p.Dependencies
	c.Dir = dir
	c.OutTopic = event.TopicInstallStatus
	c.ErrTopic = event.TopicInstallError

	status("Running %s...", commandLine(c))
	h, err := p.Spawner.Spawn(c, sink)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDependencyInstallFailed, err)
	}

	code, err := h.Wait(ctx)
	if err != nil {
		// Still running; leave it tracked so a sweep can kill it.
		return fmt.Errorf("waiting for %s: %w", c.Name, err)
	}
	if p.Registry != nil {
		p.Registry.Remove(h.PID())
	}
	// Let the last install lines through before reporting the result.
	select {
	case <-h.Drained():
	case <-ctx.Done():
	}
	if code != 0 {
		return fmt.Errorf("%w: %s exited with code %d", ErrDependencyInstallFailed, commandLine(c), code)
	}
	return nil
}

func (p *Provisioner) resolveDir() (string, error) {
	if p.ResolveDir != nil {
		return p.ResolveDir()
	}
	return paths.WorkDir()
}

func commandLine(c runner.Command) string {
	s := c.Name
	for _, a := range c.Args {
		s += " " + a
	}
	return s
}
