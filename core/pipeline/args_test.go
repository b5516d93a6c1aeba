package pipeline

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"

	"qfsrun/core/config"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(
		t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithDiffEngine(goldie.ColoredDiff),
		goldie.WithTestNameForDir(true),
	)
}

// defaultTestConfig mirrors the embedded default config with all paths left
// relative so rendered commands are stable across machines.
func defaultTestConfig() *config.Configuration {
	return &config.Configuration{
		Python:         "python3",
		FinetuneScript: "train_qfs.py",
		EvalScript:     "eval_qfs.py",
		CUDADevices:    "0",
		DataDir:        "data",
		OutputDir:      "output",
		Task:           "summarization",
		Model:          "facebook/bart-large",
		Finetune: config.FinetuneDefaults{
			LearningRate:     3e-05,
			GPUs:             1,
			DoTrain:          true,
			DoPredict:        true,
			NumVal:           1000,
			ValCheckInterval: 0.1,
			MaxSourceLength:  1024,
			MaxTargetLength:  256,
			FreezeEmbeds:     true,
			TrainBatchSize:   2,
			EvalBatchSize:    2,
			NumWorkers:       4,
			GradAccumSteps:   8,
			Patience:         3,
		},
		Eval: config.EvalDefaults{
			NumObs:          -1,
			Device:          "cuda",
			BatchSize:       8,
			GenerationsName: "test_generations.txt",
			ScoresName:      "scores.json",
		},
	}
}

func testConfig(t *testing.T) *config.Configuration {
	t.Helper()
	cfg := defaultTestConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestCommandGolden(t *testing.T) {
	g := newGoldie(t)

	t.Run("finetune args", func(t *testing.T) {
		opts := FinetuneOptions{
			DataDir:   "/srv/qfs/data",
			OutputDir: "/srv/qfs/output",
			Model:     "facebook/bart-large",

			LearningRate:     3e-05,
			GPUs:             1,
			DoTrain:          true,
			DoPredict:        true,
			NumVal:           1000,
			ValCheckInterval: 0.1,
			MaxSourceLength:  1024,
			MaxTargetLength:  256,
			FreezeEmbeds:     true,
			TrainBatchSize:   2,
			EvalBatchSize:    2,
			NumWorkers:       4,
			GradAccumSteps:   8,
			Patience:         3,
			ExtraArgs:        "--label_smoothing 0.1",
		}

		args, err := opts.Args()
		assert.Nil(t, err)
		g.Assert(t, "finetune_args", []byte(strings.Join(args, "\n")+"\n"))
	})

	t.Run("eval args", func(t *testing.T) {
		opts := EvalOptions{
			Checkpoint:    "/srv/qfs/output/best_tfmr",
			DataDir:       "/srv/qfs/data",
			SavePath:      "/srv/qfs/output/test_generations.txt",
			ReferencePath: "/srv/qfs/data/test_summary",
			ScorePath:     "/srv/qfs/output/scores.json",
			Task:          "summarization",
			NumObs:        -1,
			Device:        "cuda",
			BatchSize:     8,
			RawInput:      true,
			Baseline:      true,
		}

		args, err := opts.Args()
		assert.Nil(t, err)
		g.Assert(t, "eval_args", []byte(strings.Join(args, "\n")+"\n"))
	})

	t.Run("finetune command from defaults", func(t *testing.T) {
		cfg := testConfig(t)
		launcher := NewLauncher(cfg)

		cmd, err := launcher.Finetune(FinetuneOptionsFromConfig(cfg))
		assert.Nil(t, err)
		g.Assert(t, "finetune_default_command", []byte(cmd.String()+"\n"))
	})
}

func TestArgsAreDeterministic(t *testing.T) {
	cfg := testConfig(t)

	first := FinetuneOptionsFromConfig(cfg)
	second := FinetuneOptionsFromConfig(cfg)

	firstArgs, err := first.Args()
	assert.Nil(t, err)
	secondArgs, err := second.Args()
	assert.Nil(t, err)
	assert.Equal(t, firstArgs, secondArgs)
}

func TestEvalArgsRequireCheckpoint(t *testing.T) {
	cfg := testConfig(t)

	opts := EvalOptionsFromConfig(cfg)
	_, err := opts.Args()
	assert.Error(t, err)

	opts.Checkpoint = "output/best_tfmr"
	_, err = opts.Args()
	assert.Nil(t, err)
}

func TestExtraArgsSplitting(t *testing.T) {
	opts := EvalOptions{
		Checkpoint: "ckpt",
		Device:     "cpu",
		ExtraArgs:  `--fp16 --prefix 'summarize: '`,
	}

	args, err := opts.Args()
	assert.Nil(t, err)
	assert.Equal(t, "--fp16", args[len(args)-3])
	assert.Equal(t, "--prefix", args[len(args)-2])
	assert.Equal(t, "summarize: ", args[len(args)-1])
}

func TestExtraArgsBadQuoting(t *testing.T) {
	opts := FinetuneOptions{ExtraArgs: `--prefix 'unterminated`}
	_, err := opts.Args()
	assert.Error(t, err)
}
