// Package installer installs missing tools through the system package
// manager.
package installer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/tessro/mindshell/internal/sysproc"
)

// PackagePlaceholder is replaced with the package identifier in Args.
const PackagePlaceholder = "{package}"

// Errors returned by Install.
var (
	ErrPackageManagerUnavailable = errors.New("package manager unavailable")
	ErrInstallFailed             = errors.New("install failed")
)

// Kind classifies an installer failure.
type Kind int

const (
	// KindToolUnavailable means the package manager itself is missing.
	KindToolUnavailable Kind = iota + 1
	// KindInstallFailed means the package manager ran and failed.
	KindInstallFailed
)

func (k Kind) String() string {
	switch k {
	case KindToolUnavailable:
		return "tool unavailable"
	case KindInstallFailed:
		return "install failed"
	default:
		return "unknown"
	}
}

// Error reports an install that could not complete.
type Error struct {
	Kind    Kind
	Package string
	// Detail is the diagnostic output captured from the package manager.
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("install %s: %v", e.Package, e.Err)
	}
	return fmt.Sprintf("install %s: %v: %s", e.Package, e.Err, e.Detail)
}

// Unwrap exposes the sentinel for Kind and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Kind == KindToolUnavailable {
		return []error{ErrPackageManagerUnavailable, e.Err}
	}
	return []error{ErrInstallFailed, e.Err}
}

// ToolChecker reports whether an executable is available.
type ToolChecker interface {
	IsAvailable(name string) bool
}

// Installer runs unattended installs with one package manager.
type Installer struct {
	// Manager is the package manager executable, e.g. "winget".
	Manager string
	// Args is the argument template; PackagePlaceholder marks the package.
	Args []string
	// Checker verifies Manager is present before each install.
	Checker ToolChecker
	// Command builds the invocation. Defaults to sysproc.Command.
	Command func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// DefaultManager returns the package manager and unattended install
// arguments for goos. The arguments accept license and source agreements
// without prompting.
func DefaultManager(goos string) (string, []string) {
	switch goos {
	case "windows":
		return "winget", []string{
			"install", "--id", PackagePlaceholder, "--exact", "--silent",
			"--accept-package-agreements", "--accept-source-agreements",
		}
	case "darwin":
		return "brew", []string{"install", PackagePlaceholder}
	default:
		return "apt-get", []string{"install", "-y", PackagePlaceholder}
	}
}

// ExpandArgs substitutes packageID for every PackagePlaceholder in args.
func ExpandArgs(args []string, packageID string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = strings.ReplaceAll(a, PackagePlaceholder, packageID)
	}
	return out
}

// Install installs packageID. Failures are *Error values: KindToolUnavailable
// if the package manager is not on PATH, KindInstallFailed with the captured
// output if it exits unsuccessfully.
func (i *Installer) Install(ctx context.Context, packageID string) error {
	log := slog.With("component", "installer", "manager", i.Manager, "package", packageID)

	if i.Checker != nil && !i.Checker.IsAvailable(i.Manager) {
		log.Warn("Installer.Install: package manager not found")
		return &Error{
			Kind:    KindToolUnavailable,
			Package: packageID,
			Err:     fmt.Errorf("%s not found on PATH", i.Manager),
		}
	}

	build := i.Command
	if build == nil {
		build = sysproc.Command
	}

	cmd := build(ctx, i.Manager, ExpandArgs(i.Args, packageID)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Info("Installer.Install: installing")
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		log.Error("Installer.Install: install failed", "error", err, "detail", detail)
		return &Error{Kind: KindInstallFailed, Package: packageID, Detail: detail, Err: err}
	}

	log.Info("Installer.Install: installed")
	return nil
}
