package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"qfsrun/core/dataset"
)

var checkRaw bool

// checkCmd validates a dataset directory without launching anything
var checkCmd = &cobra.Command{
	Use:   "check [DATA_DIR]",
	Short: "Validate a QFS dataset directory.",
	Long: `Checks that every split has its content, summary and relevance (or
query) files, that line counts agree, and that relevance scores line up with
the document words.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		var dataDir string
		if len(args) == 1 {
			dataDir = args[0]
		} else {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			dataDir = cfg.ResolvePath(cfg.DataDir)
		}

		report, err := dataset.Check(afero.NewOsFs(), dataDir, checkRaw)
		if err != nil {
			return err
		}

		return printReport(cmd, report)
	},
}

func printReport(cmd *cobra.Command, report *dataset.Report) error {
	out := cmd.OutOrStdout()
	for _, split := range report.Splits {
		if len(split.Problems) == 0 {
			fmt.Fprintf(out, "%s: ok (%d examples)\n", split.Split, split.Examples)
			continue
		}
		fmt.Fprintf(out, "%s: %d problem(s)\n", split.Split, len(split.Problems))
		for _, problem := range split.Problems {
			fmt.Fprintf(out, "  %s\n", problem)
		}
	}

	if !report.OK() {
		return fmt.Errorf("dataset %s failed validation", report.Dir)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVar(&checkRaw, "raw", false, "Expect the raw layout with a separate query file.")
}
