package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runNoSetup bool

var runCmd = &cobra.Command{
	Use:   "run [args...]",
	Short: "Set up and launch the bot, streaming its output",
	Long: "Run setup, then launch the bot in the working directory with args appended " +
		"to the configured launch arguments. Interrupting stops the bot and every " +
		"process started with it.",
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errOut := cmd.ErrOrStderr()
	unsubscribe := a.Bus().Subscribe(streamPrinter(cmd.OutOrStdout(), errOut))
	defer unsubscribe()

	if !runNoSetup {
		if err := a.Setup(ctx); err != nil {
			_ = a.StopAll(context.Background())
			return err
		}
	}

	h, err := a.Launch(args...)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(errOut, statusStyle.Render(fmt.Sprintf("» Started %s (pid %d)", h.Name(), h.PID())))

	select {
	case <-h.Done():
		<-h.Drained()
	case <-ctx.Done():
		_, _ = fmt.Fprintln(errOut, statusStyle.Render("» Stopping..."))
		if err := a.Terminate(context.Background(), h.PID()); err != nil {
			return err
		}
		<-h.Done()
		return nil
	}

	// Anything the bot left behind is still tracked.
	a.Prune()
	if len(a.Tracked()) > 0 {
		if err := a.StopAll(context.Background()); err != nil {
			return err
		}
	}

	if code := h.ExitCode(); code != 0 {
		return fmt.Errorf("%s exited with code %d", h.Name(), code)
	}
	return nil
}

func init() {
	runCmd.Flags().BoolVar(&runNoSetup, "no-setup", false, "skip setup and launch immediately")
	rootCmd.AddCommand(runCmd)
}
