package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tessro/mindshell/internal/registry"
)

var killCmd = &cobra.Command{
	Use:   "kill <pid>",
	Short: "Forcefully kill a process",
	Long:  "Forcefully kill the process with the given PID (taskkill /F on Windows, kill -9 elsewhere).",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := registry.ParsePID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		if err := a.Terminate(cmd.Context(), pid); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Killed process %d\n", pid)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(killCmd)
}
