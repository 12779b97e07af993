package installer

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"testing"
)

type staticChecker map[string]bool

func (s staticChecker) IsAvailable(name string) bool { return s[name] }

func TestExpandArgs(t *testing.T) {
	args := []string{"install", "--id", "{package}", "--note={package}"}
	got := ExpandArgs(args, "Git.Git")

	want := []string{"install", "--id", "Git.Git", "--note=Git.Git"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("ExpandArgs() = %v, want %v", got, want)
	}
	if args[2] != "{package}" {
		t.Error("ExpandArgs modified its input")
	}
}

func TestDefaultManager(t *testing.T) {
	tests := []struct {
		goos     string
		wantName string
		wantArg  string
	}{
		{"windows", "winget", "--accept-package-agreements"},
		{"darwin", "brew", "install"},
		{"linux", "apt-get", "-y"},
	}

	for _, tt := range tests {
		name, args := DefaultManager(tt.goos)
		if name != tt.wantName {
			t.Errorf("%s: manager = %q, want %q", tt.goos, name, tt.wantName)
		}
		joined := strings.Join(args, " ")
		if !strings.Contains(joined, tt.wantArg) || !strings.Contains(joined, PackagePlaceholder) {
			t.Errorf("%s: args = %v", tt.goos, args)
		}
	}
}

func TestInstallManagerUnavailable(t *testing.T) {
	called := false
	i := &Installer{
		Manager: "winget",
		Checker: staticChecker{},
		Command: func(ctx context.Context, name string, args ...string) *exec.Cmd {
			called = true
			return exec.CommandContext(ctx, name, args...)
		},
	}

	err := i.Install(context.Background(), "Git.Git")
	if !errors.Is(err, ErrPackageManagerUnavailable) {
		t.Fatalf("Install() error = %v, want ErrPackageManagerUnavailable", err)
	}
	if called {
		t.Error("package manager invoked although unavailable")
	}
	var instErr *Error
	if !errors.As(err, &instErr) || instErr.Kind != KindToolUnavailable {
		t.Errorf("error %v is not a KindToolUnavailable *Error", err)
	}
	if errors.Is(err, ErrInstallFailed) {
		t.Error("unavailable manager reported as ErrInstallFailed")
	}
}

func fakeManager(script string, got *[]string) func(ctx context.Context, name string, args ...string) *exec.Cmd {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		*got = append([]string{name}, args...)
		return exec.CommandContext(ctx, "sh", "-c", script)
	}
}

func TestInstallSuccess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}

	var invoked []string
	i := &Installer{
		Manager: "winget",
		Args:    []string{"install", "--id", PackagePlaceholder, "--silent"},
		Checker: staticChecker{"winget": true},
		Command: fakeManager("exit 0", &invoked),
	}

	if err := i.Install(context.Background(), "OpenJS.NodeJS.LTS"); err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	want := "winget install --id OpenJS.NodeJS.LTS --silent"
	if strings.Join(invoked, " ") != want {
		t.Errorf("invoked %q, want %q", strings.Join(invoked, " "), want)
	}
}

func TestInstallFailureCapturesDetail(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}

	tests := []struct {
		name   string
		script string
		want   string
	}{
		{"stderr", "echo progress; echo 'No package found' >&2; exit 2", "No package found"},
		{"stdout fallback", "echo 'Installer hash does not match'; exit 1", "Installer hash does not match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var invoked []string
			i := &Installer{
				Manager: "brew",
				Args:    []string{"install", PackagePlaceholder},
				Command: fakeManager(tt.script, &invoked),
			}

			err := i.Install(context.Background(), "git")
			if !errors.Is(err, ErrInstallFailed) {
				t.Fatalf("Install() error = %v, want ErrInstallFailed", err)
			}
			var instErr *Error
			if !errors.As(err, &instErr) {
				t.Fatalf("error %v is not *Error", err)
			}
			if instErr.Kind != KindInstallFailed {
				t.Errorf("Kind = %v, want %v", instErr.Kind, KindInstallFailed)
			}
			if instErr.Package != "git" {
				t.Errorf("Package = %q, want git", instErr.Package)
			}
			if instErr.Detail != tt.want {
				t.Errorf("Detail = %q, want %q", instErr.Detail, tt.want)
			}
		})
	}
}
