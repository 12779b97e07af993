// Command mindshell provisions, launches and stops the Mindcraft bot.
package main

import (
	"os"

	"github.com/tessro/mindshell/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
