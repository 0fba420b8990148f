package cmd

import (
	"fmt"

	"github.com/msto63/lox/internal/tui/repl"
	"github.com/spf13/cobra"
)

var replMode string

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive scan/parse shell",
	Long: `Start an interactive shell. Each line is scanned and parsed on its own.

Commands inside the shell:
  :parse, :tree, :scan   switch output mode (or run once with text after it)
  :clear                 clear the transcript
  :help                  show help
  :quit                  leave`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, ok := repl.ParseMode(replMode)
		if !ok {
			return &exitError{code: ExitUsage, err: fmt.Errorf("unknown mode %q", replMode)}
		}
		return repl.Run(repl.Config{
			Prompt:      app.cfg.REPL.Prompt,
			HistorySize: app.cfg.REPL.HistorySize,
			Mode:        mode,
		}, newService())
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
	replCmd.Flags().StringVarP(&replMode, "mode", "m", "parse", "initial mode: parse, tree, scan")
}
