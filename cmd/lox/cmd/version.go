package cmd

import (
	"fmt"

	"github.com/msto63/lox/pkg/core/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, version.Info())
		for _, name := range []string{"scanner", "parser", "frontend", "repl"} {
			fmt.Fprintf(out, "  %-9s %s\n", name, version.ComponentVersion(name))
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
