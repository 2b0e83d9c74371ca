package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(out, version)
				return
			}
			fmt.Fprintf(out, "atomctl %s\n", version)
			for _, kv := range [][2]string{
				{"commit", commit},
				{"built", date},
				{"go", runtime.Version()},
				{"platform", runtime.GOOS + "/" + runtime.GOARCH},
			} {
				fmt.Fprintf(out, "  %-9s %s\n", kv[0]+":", kv[1])
			}
		},
	}
	cmd.Flags().BoolVarP(&short, "short", "s", false, "print the version only")
	return cmd
}
