package cli

import (
	"github.com/spf13/cobra"

	"github.com/tessro/mindshell/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the terminal user interface",
	Long:  "Launch the interactive TUI for setting up, starting and stopping the bot.",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer closeApp(a)
	return tui.Run(a)
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
