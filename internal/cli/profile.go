package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage bot profiles",
}

var profileAddCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Add a bot profile from a YAML or JSON file",
	Long:  "Add a bot profile. YAML profiles are converted to JSON and saved as <name>.json in the working directory.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		path, err := store.ImportProfile(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", path)
		return nil
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bot profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		names, err := store.Profiles()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No profiles.")
			fmt.Fprintln(cmd.OutOrStdout(), "Add one with: mindshell profile add <file.yaml>")
			return nil
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	profileCmd.AddCommand(profileAddCmd, profileListCmd)
	rootCmd.AddCommand(profileCmd)
}
