package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"qfsrun/core/config"
)

// initCmd writes the default run directory layout
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a run directory with a default config.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		logger := log.New(cmd.ErrOrStderr(), "", 0)

		return config.Initialize(cfgPath, logger)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
