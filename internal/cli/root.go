package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tessro/mindshell/internal/app"
	"github.com/tessro/mindshell/internal/config"
	"github.com/tessro/mindshell/internal/logging"
	"github.com/tessro/mindshell/internal/paths"
)

// closeTimeout bounds how long a command waits for output forwarding to
// drain before exiting.
const closeTimeout = 5 * time.Second

var (
	// baseDir is the global --dir flag value.
	baseDir  string
	logLevel string
	verbose  bool

	// cfg is loaded once per invocation by PersistentPreRunE.
	cfg        *config.Config
	logCleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "mindshell",
	Short: "Desktop shell for the Mindcraft bot",
	Long: "mindshell provisions a local runtime for the Mindcraft bot (git, Node.js, " +
		"the repository and its dependencies), launches it and streams its output.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Set MINDSHELL_DIR if --dir is provided so every path helper
		// uses the override.
		if baseDir != "" {
			if err := os.Setenv(paths.EnvDir, baseDir); err != nil {
				return err
			}
		}

		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		cfg = loaded

		level := cfg.GetLogLevel()
		if logLevel != "" {
			level = logLevel
		}
		opts := logging.Options{Level: logging.ParseLevel(level)}
		if verbose {
			opts.Console = os.Stderr
		}
		cleanup, err := logging.Setup(opts)
		if err != nil {
			// Logging is best-effort; commands still work without a log file.
			fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
			return nil
		}
		logCleanup = cleanup
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			logCleanup()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !isTerminal(os.Stdout) {
			return cmd.Help()
		}
		return runTUI(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseDir, "dir", "", "base directory for mindshell data (overrides the user config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "also write log records to stderr")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newApp builds the application context from the loaded config.
func newApp() (*app.App, error) {
	return app.New(app.Options{Config: cfg})
}

// closeApp waits briefly for forwarders so trailing output is not lost.
func closeApp(a *app.App) {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	_ = a.Close(ctx)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
