// Package logging provides slog-based logging for mindshell.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/tessro/mindshell/internal/paths"
)

// ParseLevel converts a log level string to slog.Level.
// Valid values: "debug", "info", "warn"/"warning", "error" (case-insensitive).
// Returns slog.LevelInfo for unrecognized values.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Options configures Setup.
type Options struct {
	// Path is the log file. Defaults to paths.LogPath().
	Path string
	// Level controls verbosity (use ParseLevel to convert from string).
	Level slog.Level
	// Console, if set, also receives every record. Useful with --verbose.
	Console io.Writer
}

// Setup initializes the global slog logger to write JSON records to the log
// file, and to opts.Console when set.
// Returns a cleanup function to close the log file.
func Setup(opts Options) (cleanup func(), err error) {
	path := opts.Path
	if path == "" {
		path = paths.LogPath()
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}

	// Open log file (append mode, create if not exists)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, err
	}

	var w io.Writer = f
	if opts.Console != nil {
		w = io.MultiWriter(f, opts.Console)
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: opts.Level,
	})
	slog.SetDefault(slog.New(handler))

	return func() { f.Close() }, nil
}

// SetupTest configures logging for tests (writes to provided writer, text format).
func SetupTest(w io.Writer) {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	slog.SetDefault(slog.New(handler))
}

// LogPanic logs a panic with stack trace and context.
// Use in a defer at the start of goroutines:
//
//	defer logging.LogPanic("goroutine-name", nil)
//
// Or with a recovery callback:
//
//	defer logging.LogPanic("goroutine-name", func(r any) { cleanup() })
func LogPanic(name string, onRecover func(any)) {
	if r := recover(); r != nil {
		slog.Error("panic recovered",
			"goroutine", name,
			"panic", r,
			"stack", string(captureStack()),
		)
		if onRecover != nil {
			onRecover(r)
		}
	}
}

// captureStack returns the current goroutine's stack trace.
func captureStack() []byte {
	buf := make([]byte, 4096)
	for {
		n := runtime.Stack(buf, false)
		if n < len(buf) {
			return buf[:n]
		}
		buf = make([]byte, len(buf)*2)
	}
}
