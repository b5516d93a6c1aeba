// Package pipeline renders and executes invocations of the external
// fine-tuning and evaluation drivers. It owns the command-line contract with
// the Python side: flag names, value formatting, and environment variables.
package pipeline

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/anmitsu/go-shlex"

	"qfsrun/core/config"
)

// FinetuneOptions parameterize the fine-tuning driver.
type FinetuneOptions struct {
	DataDir   string
	OutputDir string
	Model     string

	LearningRate     float64
	GPUs             int
	DoTrain          bool
	DoPredict        bool
	NumVal           int
	ValCheckInterval float64
	MaxSourceLength  int
	MaxTargetLength  int
	FreezeEmbeds     bool
	TrainBatchSize   int
	EvalBatchSize    int
	NumWorkers       int
	GradAccumSteps   int
	Patience         int

	// ExtraArgs is split shell-style and appended verbatim.
	ExtraArgs string
}

// FinetuneOptionsFromConfig seeds options with the configured defaults.
func FinetuneOptionsFromConfig(cfg *config.Configuration) FinetuneOptions {
	ft := cfg.Finetune
	return FinetuneOptions{
		DataDir:   cfg.ResolvePath(cfg.DataDir),
		OutputDir: cfg.ResolvePath(cfg.OutputDir),
		Model:     cfg.Model,

		LearningRate:     ft.LearningRate,
		GPUs:             ft.GPUs,
		DoTrain:          ft.DoTrain,
		DoPredict:        ft.DoPredict,
		NumVal:           ft.NumVal,
		ValCheckInterval: ft.ValCheckInterval,
		MaxSourceLength:  ft.MaxSourceLength,
		MaxTargetLength:  ft.MaxTargetLength,
		FreezeEmbeds:     ft.FreezeEmbeds,
		TrainBatchSize:   ft.TrainBatchSize,
		EvalBatchSize:    ft.EvalBatchSize,
		NumWorkers:       ft.NumWorkers,
		GradAccumSteps:   ft.GradAccumSteps,
		Patience:         ft.Patience,
		ExtraArgs:        ft.ExtraArgs,
	}
}

// Args renders the driver command line, minus the interpreter and script.
// The ordering is fixed so identical options always produce identical argv.
func (o *FinetuneOptions) Args() ([]string, error) {
	args := []string{
		"--data_dir", o.DataDir,
		"--output_dir", o.OutputDir,
		"--model_name_or_path", o.Model,
		"--learning_rate", formatFloat(o.LearningRate),
		"--gpus", strconv.Itoa(o.GPUs),
	}
	if o.DoTrain {
		args = append(args, "--do_train")
	}
	if o.DoPredict {
		args = append(args, "--do_predict")
	}
	args = append(args,
		"--n_val", strconv.Itoa(o.NumVal),
		"--val_check_interval", formatFloat(o.ValCheckInterval),
		"--max_source_length", strconv.Itoa(o.MaxSourceLength),
		"--max_target_length", strconv.Itoa(o.MaxTargetLength),
	)
	if o.FreezeEmbeds {
		args = append(args, "--freeze_embeds")
	}
	args = append(args,
		"--train_batch_size", strconv.Itoa(o.TrainBatchSize),
		"--eval_batch_size", strconv.Itoa(o.EvalBatchSize),
		"--num_workers", strconv.Itoa(o.NumWorkers),
		"--gradient_accumulation_steps", strconv.Itoa(o.GradAccumSteps),
		"--early_stopping_patience", strconv.Itoa(o.Patience),
	)

	return appendExtraArgs(args, o.ExtraArgs)
}

// EvalOptions parameterize the evaluation driver.
type EvalOptions struct {
	// Checkpoint is the trained model path handed to the driver.
	Checkpoint string
	DataDir    string

	SavePath      string
	ReferencePath string
	ScorePath     string

	Task      string
	NumObs    int
	Device    string
	BatchSize int
	RawInput  bool
	Baseline  bool

	ExtraArgs string
}

// EvalOptionsFromConfig seeds options with the configured defaults. The
// generation and score paths land in the output directory and the reference
// defaults to the test split's summaries.
func EvalOptionsFromConfig(cfg *config.Configuration) EvalOptions {
	ev := cfg.Eval
	outputDir := cfg.ResolvePath(cfg.OutputDir)
	return EvalOptions{
		DataDir:       cfg.ResolvePath(cfg.DataDir),
		SavePath:      filepath.Join(outputDir, ev.GenerationsName),
		ReferencePath: filepath.Join(cfg.ResolvePath(cfg.DataDir), "test_summary"),
		ScorePath:     filepath.Join(outputDir, ev.ScoresName),
		Task:          cfg.Task,
		NumObs:        ev.NumObs,
		Device:        ev.Device,
		BatchSize:     ev.BatchSize,
		RawInput:      ev.RawInput,
		Baseline:      ev.Baseline,
		ExtraArgs:     ev.ExtraArgs,
	}
}

// Args renders the driver command line, minus the interpreter and script.
func (o *EvalOptions) Args() ([]string, error) {
	if o.Checkpoint == "" {
		return nil, fmt.Errorf("a model checkpoint is required")
	}

	args := []string{
		"--model_name", o.Checkpoint,
		"--input_dir", o.DataDir,
		"--save_path", o.SavePath,
		"--reference_path", o.ReferencePath,
		"--score_path", o.ScorePath,
		"--task", o.Task,
		"--n_obs", strconv.Itoa(o.NumObs),
		"--device", o.Device,
		"--bs", strconv.Itoa(o.BatchSize),
	}
	if o.RawInput {
		args = append(args, "--raw_input")
	}
	if o.Baseline {
		args = append(args, "--baseline")
	}

	return appendExtraArgs(args, o.ExtraArgs)
}

func appendExtraArgs(args []string, extra string) ([]string, error) {
	if extra == "" {
		return args, nil
	}
	split, err := shlex.Split(extra, true)
	if err != nil {
		return nil, fmt.Errorf("couldn't split extra args %q: %w", extra, err)
	}
	return append(args, split...), nil
}

// formatFloat renders floats the way the shell scripts wrote them, e.g.
// 3e-05 rather than 0.000030.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
