package cmd

import (
	"fmt"
	"os"

	"github.com/msto63/lox/foundation/utils/stringx"
	"github.com/msto63/lox/pkg/core/config"
	"github.com/spf13/cobra"
)

var configFormat string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or validate configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.cfg.Encode(cmd.OutOrStdout(), configFormat); err != nil {
			return &exitError{code: ExitUsage, err: err}
		}
		return nil
	},
}

// validation already ran in setup; reaching RunE means the file is valid
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and exit",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "configuration OK (%s)\n", configSource())
	},
}

// configSource names where the configuration came from
func configSource() string {
	return stringx.FirstNonBlank(cfgFile, os.Getenv(config.EnvConfigPath), "defaults or search path")
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	configShowCmd.Flags().StringVarP(&configFormat, "format", "f", "toml", "output format: toml, yaml")
}
