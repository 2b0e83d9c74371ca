package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/atomrx/internal/errors"
)

// Set by -ldflags at release time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		errors.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}

var plain bool

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "atomctl",
		Short: "Serve and watch reactive JSON state",
		Long: `atomctl serves a JSON document held in an atom.

Clients read and write key paths over HTTP and watch them over
WebSocket. Watchers of a path are notified only when the value
at that path changes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if os.Getenv("NO_COLOR") != "" {
				plain = true
			}
			errors.SetColor(!plain)
		},
	}
	cmd.PersistentFlags().BoolVar(&plain, "no-color", false, "disable colored output")

	cmd.AddCommand(
		serveCmd(),
		watchCmd(),
		benchCmd(),
		versionCmd(),
	)
	return cmd
}

func success(format string, args ...any) {
	mark := "\033[32m✓\033[0m"
	if plain {
		mark = "ok"
	}
	fmt.Printf("%s %s\n", mark, fmt.Sprintf(format, args...))
}

func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
