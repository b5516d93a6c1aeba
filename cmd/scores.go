package cmd

import (
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"qfsrun/core/scores"
)

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Inspect score files written by the evaluation driver.",
}

var scoresShowCmd = &cobra.Command{
	Use:   "show [FILE]",
	Short: "Print a score file as a table.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		path, err := scorePathArg(args)
		if err != nil {
			return err
		}

		result, err := scores.Load(afero.NewOsFs(), path)
		if err != nil {
			return err
		}
		return result.WriteTable(cmd.OutOrStdout())
	},
}

var scoresDiffCmd = &cobra.Command{
	Use:   "diff BEFORE AFTER",
	Short: "Compare two score files metric by metric.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		fsys := afero.NewOsFs()
		before, err := scores.Load(fsys, args[0])
		if err != nil {
			return err
		}
		after, err := scores.Load(fsys, args[1])
		if err != nil {
			return err
		}

		return scores.WriteDiffTable(cmd.OutOrStdout(), scores.Diff(before, after))
	},
}

// scorePathArg resolves the score file argument, falling back to the
// configured output location.
func scorePathArg(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg.ResolvePath(cfg.OutputDir), cfg.Eval.ScoresName), nil
}

func init() {
	rootCmd.AddCommand(scoresCmd)
	scoresCmd.AddCommand(scoresShowCmd)
	scoresCmd.AddCommand(scoresDiffCmd)
}
