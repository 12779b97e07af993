package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/tessro/mindshell/internal/app"
	"github.com/tessro/mindshell/internal/event"
	"github.com/tessro/mindshell/internal/provision"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Install tools, clone the bot and install its dependencies",
	Long: "Ensure git and Node.js are installed, clone the bot repository into the " +
		"working directory if it is missing, and run the dependency install.",
	Args: cobra.NoArgs,
	RunE: runSetup,
}

func runSetup(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if isTerminal(os.Stdout) {
		err = setupWithSpinner(ctx, a, cmd.OutOrStdout())
	} else {
		unsubscribe := a.Bus().Subscribe(topicPrinter(cmd.OutOrStdout()))
		err = a.Setup(ctx)
		unsubscribe()
	}

	if ctx.Err() != nil {
		// Interrupted mid-install: do not leave the dependency install running.
		_ = a.StopAll(context.Background())
	}
	return err
}

// setupWithSpinner shows the latest setup-status as the spinner suffix and
// prints the tail of install errors if setup fails.
func setupWithSpinner(ctx context.Context, a *app.App, w io.Writer) error {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " Starting setup..."

	installErrors := &tail{n: 10}
	unsubscribe := a.Bus().Subscribe(func(m event.Message) {
		switch m.Topic {
		case event.TopicSetupStatus:
			s.Lock()
			s.Suffix = " " + m.Line
			s.Unlock()
		case event.TopicInstallError:
			installErrors.add(m.Line)
		}
	})
	defer unsubscribe()

	s.Start()
	err := a.Setup(ctx)
	s.Stop()

	if err != nil {
		_, _ = fmt.Fprintln(w, errorStyle.Render("✗ Setup failed"))
		for _, line := range installErrors.snapshot() {
			_, _ = fmt.Fprintln(w, "  "+line)
		}
		return err
	}

	_, _ = fmt.Fprintln(w, successStyle.Render("✓ "+provision.CompletedMessage))
	return nil
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
