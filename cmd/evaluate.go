package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"qfsrun/core/pipeline"
	"qfsrun/core/scores"
)

var (
	evalDryRun     bool
	evalSkipChecks bool
	evalFlags      pipeline.EvalOptions
	evalExtraArgs  string
)

// evaluateCmd launches the external evaluation driver
var evaluateCmd = &cobra.Command{
	Use:     "evaluate CHECKPOINT",
	Aliases: []string{"eval"},
	Short:   "Generate and score summaries with a trained checkpoint.",
	Long: `Renders the evaluation driver command line for the given checkpoint,
runs it, and prints the scores it wrote. Use --dry-run to inspect the
command without launching anything.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		opts := pipeline.EvalOptionsFromConfig(cfg)
		opts.Checkpoint = args[0]
		applyEvalFlags(cmd, &opts)

		if !evalSkipChecks {
			if err := preflight(cmd, opts.DataDir, opts.RawInput); err != nil {
				return err
			}
		}

		command, err := pipeline.NewLauncher(cfg).Evaluate(opts)
		if err != nil {
			return err
		}

		runner, closeLog, err := newRunner(cmd, cfg, evalDryRun)
		if err != nil {
			return err
		}
		defer closeLog()

		ctx, cancel := signalContext()
		defer cancel()
		if err := runner.Run(ctx, command); err != nil {
			return err
		}
		if evalDryRun {
			return nil
		}

		result, err := scores.Load(afero.NewOsFs(), opts.ScorePath)
		if err != nil {
			log.Printf("Driver finished but scores are unreadable: %v", err)
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return result.WriteTable(cmd.OutOrStdout())
	},
}

// applyEvalFlags overlays explicitly set flags onto the config defaults.
func applyEvalFlags(cmd *cobra.Command, opts *pipeline.EvalOptions) {
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		opts.DataDir = evalFlags.DataDir
	}
	if flags.Changed("save-path") {
		opts.SavePath = evalFlags.SavePath
	}
	if flags.Changed("reference-path") {
		opts.ReferencePath = evalFlags.ReferencePath
	}
	if flags.Changed("score-path") {
		opts.ScorePath = evalFlags.ScorePath
	}
	if flags.Changed("task") {
		opts.Task = evalFlags.Task
	}
	if flags.Changed("n-obs") {
		opts.NumObs = evalFlags.NumObs
	}
	if flags.Changed("device") {
		opts.Device = evalFlags.Device
	}
	if flags.Changed("batch-size") {
		opts.BatchSize = evalFlags.BatchSize
	}
	if flags.Changed("raw") {
		opts.RawInput = evalFlags.RawInput
	}
	if flags.Changed("baseline") {
		opts.Baseline = evalFlags.Baseline
	}
	if flags.Changed("extra-args") {
		opts.ExtraArgs = evalExtraArgs
	}
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	flags := evaluateCmd.Flags()
	flags.BoolVar(&evalDryRun, "dry-run", false, "Print the driver command line instead of running it.")
	flags.BoolVar(&evalSkipChecks, "skip-checks", false, "Skip the dataset preflight checks.")

	flags.StringVar(&evalFlags.DataDir, "data-dir", "", "Dataset directory.")
	flags.StringVar(&evalFlags.SavePath, "save-path", "", "Where the driver writes generated summaries.")
	flags.StringVar(&evalFlags.ReferencePath, "reference-path", "", "Reference summaries to score against.")
	flags.StringVar(&evalFlags.ScorePath, "score-path", "", "Where the driver writes the score JSON.")
	flags.StringVar(&evalFlags.Task, "task", "", "Task name forwarded to the driver.")
	flags.IntVar(&evalFlags.NumObs, "n-obs", 0, "Cap on scored examples, -1 for all.")
	flags.StringVar(&evalFlags.Device, "device", "", "Compute device, e.g. cuda or cpu.")
	flags.IntVar(&evalFlags.BatchSize, "batch-size", 0, "Generation batch size.")
	flags.BoolVar(&evalFlags.RawInput, "raw", false, "Use the raw layout with a separate query file.")
	flags.BoolVar(&evalFlags.Baseline, "baseline", false, "Zero out relevance conditioning.")
	flags.StringVar(&evalExtraArgs, "extra-args", "", "Extra driver flags, split shell-style.")
}
