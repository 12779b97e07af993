package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tessro/mindshell/internal/paths"
	"github.com/tessro/mindshell/internal/settings"
)

func openStore() (*settings.Store, error) {
	dir, err := paths.WorkDir()
	if err != nil {
		return nil, err
	}
	return settings.NewStore(dir), nil
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "View and change the bot's settings.json",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every setting",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		all, err := store.Settings()
		if err != nil {
			return err
		}

		keys := make([]string, 0, len(all))
		for k := range all {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, k := range keys {
			v, _ := json.Marshal(all[k])
			_, _ = fmt.Fprintf(w, "%s\t%s\n", k, v)
		}
		return w.Flush()
	},
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		v, err := store.Get(args[0])
		if err != nil {
			return err
		}
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long:  "Change one setting. List settings such as profiles take a comma-separated value.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		return store.Set(args[0], args[1])
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage provider API keys in keys.json",
}

var keysSetCmd = &cobra.Command{
	Use:   "set <NAME> [value]",
	Short: "Store an API key",
	Long: "Store an API key. Without a value the key is read from stdin, hidden when " +
		"stdin is a terminal. An empty value removes the key.\n\nKnown names: " +
		strings.Join(settings.KnownKeys, ", "),
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		var value string
		if len(args) == 2 {
			value = args[1]
		} else {
			value, err = readSecret(cmd, args[0])
			if err != nil {
				return err
			}
		}
		return store.SetAPIKey(args[0], value)
	},
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored API keys, masked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		keys, err := store.APIKeys()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, name := range settings.KnownKeys {
			if v, ok := keys[name]; ok {
				_, _ = fmt.Fprintf(w, "%s\t%s\n", name, settings.MaskKey(v))
			}
		}
		return w.Flush()
	},
}

func readSecret(cmd *cobra.Command, name string) (string, error) {
	if isTerminal(os.Stdin) {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: ", name)
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read key: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", nil
	}
	return strings.TrimSpace(line), nil
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsGetCmd, settingsSetCmd)
	keysCmd.AddCommand(keysSetCmd, keysListCmd)
	rootCmd.AddCommand(settingsCmd, keysCmd)
}
