package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"qfsrun/core/config"
	"qfsrun/core/pipeline"
)

// runsCmd summarizes past driver invocations from the run log
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded pipeline invocations.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logPath := filepath.Join(cfg.ResolvePath(cfg.OutputDir), config.RunLogName)
		fd, err := os.Open(logPath)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
				return nil
			}
			return err
		}
		defer fd.Close()

		out := cmd.OutOrStdout()
		return pipeline.ReadRunLog(fd, func(ev *pipeline.Event) {
			if ev.Action != "exit" {
				return
			}
			when := time.UnixMicro(ev.TimestampMicros).Format(time.RFC3339)
			status := "ok"
			if ev.ExitCode != 0 {
				status = fmt.Sprintf("exit %d", ev.ExitCode)
			}
			duration := time.Duration(ev.DurationMillis) * time.Millisecond
			fmt.Fprintf(out, "%s  %-8s  %-8s  %s\n", when, ev.Driver, status, duration)
		})
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
}
