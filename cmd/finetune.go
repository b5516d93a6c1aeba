package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"qfsrun/core/pipeline"
)

var (
	finetuneDryRun     bool
	finetuneSkipChecks bool
	finetuneFlags      pipeline.FinetuneOptions
	finetuneExtraArgs  string
)

// finetuneCmd launches the external fine-tuning driver
var finetuneCmd = &cobra.Command{
	Use:   "finetune",
	Short: "Fine-tune the base model on the configured dataset.",
	Long: `Renders the fine-tuning driver command line from the config (any flag
given here wins over the config) and runs it with the configured CUDA
devices. Use --dry-run to inspect the command without launching anything.`,
	Args: cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		opts := pipeline.FinetuneOptionsFromConfig(cfg)
		applyFinetuneFlags(cmd, &opts)

		if !finetuneSkipChecks {
			if err := preflight(cmd, opts.DataDir, false); err != nil {
				return err
			}
		}

		command, err := pipeline.NewLauncher(cfg).Finetune(opts)
		if err != nil {
			return err
		}

		runner, closeLog, err := newRunner(cmd, cfg, finetuneDryRun)
		if err != nil {
			return err
		}
		defer closeLog()

		if !finetuneDryRun {
			saveGitInfo(cfg)
			log.Printf("Launching fine-tuning of %s", opts.Model)
		}

		ctx, cancel := signalContext()
		defer cancel()
		return runner.Run(ctx, command)
	},
}

// applyFinetuneFlags overlays explicitly set flags onto the config defaults.
func applyFinetuneFlags(cmd *cobra.Command, opts *pipeline.FinetuneOptions) {
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		opts.DataDir = finetuneFlags.DataDir
	}
	if flags.Changed("output-dir") {
		opts.OutputDir = finetuneFlags.OutputDir
	}
	if flags.Changed("model") {
		opts.Model = finetuneFlags.Model
	}
	if flags.Changed("learning-rate") {
		opts.LearningRate = finetuneFlags.LearningRate
	}
	if flags.Changed("gpus") {
		opts.GPUs = finetuneFlags.GPUs
	}
	if flags.Changed("do-train") {
		opts.DoTrain = finetuneFlags.DoTrain
	}
	if flags.Changed("do-predict") {
		opts.DoPredict = finetuneFlags.DoPredict
	}
	if flags.Changed("n-val") {
		opts.NumVal = finetuneFlags.NumVal
	}
	if flags.Changed("val-check-interval") {
		opts.ValCheckInterval = finetuneFlags.ValCheckInterval
	}
	if flags.Changed("max-source-length") {
		opts.MaxSourceLength = finetuneFlags.MaxSourceLength
	}
	if flags.Changed("max-target-length") {
		opts.MaxTargetLength = finetuneFlags.MaxTargetLength
	}
	if flags.Changed("freeze-embeds") {
		opts.FreezeEmbeds = finetuneFlags.FreezeEmbeds
	}
	if flags.Changed("train-batch-size") {
		opts.TrainBatchSize = finetuneFlags.TrainBatchSize
	}
	if flags.Changed("eval-batch-size") {
		opts.EvalBatchSize = finetuneFlags.EvalBatchSize
	}
	if flags.Changed("num-workers") {
		opts.NumWorkers = finetuneFlags.NumWorkers
	}
	if flags.Changed("grad-accum-steps") {
		opts.GradAccumSteps = finetuneFlags.GradAccumSteps
	}
	if flags.Changed("patience") {
		opts.Patience = finetuneFlags.Patience
	}
	if flags.Changed("extra-args") {
		opts.ExtraArgs = finetuneExtraArgs
	}
}

func init() {
	rootCmd.AddCommand(finetuneCmd)

	flags := finetuneCmd.Flags()
	flags.BoolVar(&finetuneDryRun, "dry-run", false, "Print the driver command line instead of running it.")
	flags.BoolVar(&finetuneSkipChecks, "skip-checks", false, "Skip the dataset preflight checks.")

	flags.StringVar(&finetuneFlags.DataDir, "data-dir", "", "Dataset directory.")
	flags.StringVar(&finetuneFlags.OutputDir, "output-dir", "", "Checkpoint and log directory.")
	flags.StringVar(&finetuneFlags.Model, "model", "", "Base pretrained model identifier.")
	flags.Float64Var(&finetuneFlags.LearningRate, "learning-rate", 0, "Optimizer learning rate.")
	flags.IntVar(&finetuneFlags.GPUs, "gpus", 0, "Number of GPUs.")
	flags.BoolVar(&finetuneFlags.DoTrain, "do-train", false, "Run training.")
	flags.BoolVar(&finetuneFlags.DoPredict, "do-predict", false, "Run prediction after training.")
	flags.IntVar(&finetuneFlags.NumVal, "n-val", 0, "Validation examples per check, -1 for all.")
	flags.Float64Var(&finetuneFlags.ValCheckInterval, "val-check-interval", 0, "Fraction of an epoch between validation checks.")
	flags.IntVar(&finetuneFlags.MaxSourceLength, "max-source-length", 0, "Source token cap.")
	flags.IntVar(&finetuneFlags.MaxTargetLength, "max-target-length", 0, "Target token cap.")
	flags.BoolVar(&finetuneFlags.FreezeEmbeds, "freeze-embeds", false, "Freeze the embedding layers.")
	flags.IntVar(&finetuneFlags.TrainBatchSize, "train-batch-size", 0, "Training batch size.")
	flags.IntVar(&finetuneFlags.EvalBatchSize, "eval-batch-size", 0, "Validation batch size.")
	flags.IntVar(&finetuneFlags.NumWorkers, "num-workers", 0, "Dataloader workers.")
	flags.IntVar(&finetuneFlags.GradAccumSteps, "grad-accum-steps", 0, "Gradient accumulation steps.")
	flags.IntVar(&finetuneFlags.Patience, "patience", 0, "Early stopping patience, -1 to disable.")
	flags.StringVar(&finetuneExtraArgs, "extra-args", "", "Extra driver flags, split shell-style.")
}
