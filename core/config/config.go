package config

import (
	_ "embed"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"sigs.k8s.io/yaml"
)

//go:embed default/qfsrun.yaml
var defaultConfigData []byte

const (
	// ConfigurationName is the name of the config file in a run directory.
	ConfigurationName = "qfsrun.yaml"
	// EnvFileName is an optional dotenv file loaded before the environment
	// overlay is applied.
	EnvFileName = ".env"
	// OutputDirName is the default output directory created by init.
	OutputDirName = "output"
	// RunLogName is the JSON lines log of pipeline invocations.
	RunLogName = "runs.log"
	// GitLogName records the state of the pipeline checkout for a run.
	GitLogName = "git_log.json"
)

// Configuration holds everything needed to parameterize the external
// fine-tuning and evaluation drivers.
type Configuration struct {
	configurationDir string

	// Python is the interpreter used to launch the pipeline scripts.
	Python string `json:"python" env:"QFSRUN_PYTHON" validate:"required"`
	// FinetuneScript is the path to the fine-tuning entry point.
	FinetuneScript string `json:"finetune_script" env:"QFSRUN_FINETUNE_SCRIPT" validate:"required"`
	// EvalScript is the path to the evaluation entry point.
	EvalScript string `json:"eval_script" env:"QFSRUN_EVAL_SCRIPT" validate:"required"`
	// PythonPath entries are joined and exported as PYTHONPATH.
	PythonPath []string `json:"python_path" env:"QFSRUN_PYTHONPATH"`
	// CUDADevices is exported as CUDA_VISIBLE_DEVICES. Empty means
	// "inherit whatever the parent environment says".
	CUDADevices string `json:"cuda_visible_devices" env:"CUDA_VISIBLE_DEVICES"`

	DataDir   string `json:"data_dir" env:"QFSRUN_DATA_DIR" validate:"required"`
	OutputDir string `json:"output_dir" env:"QFSRUN_OUTPUT_DIR" validate:"required"`

	// Task is forwarded to the evaluation driver, e.g. "summarization".
	Task string `json:"task" validate:"required"`
	// Model is the base pretrained model identifier for fine-tuning.
	Model string `json:"model" validate:"required"`

	Finetune FinetuneDefaults `json:"finetune"`
	Eval     EvalDefaults     `json:"eval"`
}

// FinetuneDefaults are the hyperparameters passed to the fine-tuning driver
// unless overridden on the command line.
type FinetuneDefaults struct {
	LearningRate     float64 `json:"learning_rate" validate:"gt=0"`
	GPUs             int     `json:"gpus" validate:"gte=0"`
	DoTrain          bool    `json:"do_train"`
	DoPredict        bool    `json:"do_predict"`
	NumVal           int     `json:"n_val" validate:"gte=-1"`
	ValCheckInterval float64 `json:"val_check_interval" validate:"gt=0"`
	MaxSourceLength  int     `json:"max_source_length" validate:"gte=1"`
	MaxTargetLength  int     `json:"max_target_length" validate:"gte=1"`
	FreezeEmbeds     bool    `json:"freeze_embeds"`
	TrainBatchSize   int     `json:"train_batch_size" validate:"gte=1"`
	EvalBatchSize    int     `json:"eval_batch_size" validate:"gte=1"`
	NumWorkers       int     `json:"num_workers" validate:"gte=0"`
	GradAccumSteps   int     `json:"gradient_accumulation_steps" validate:"gte=1"`
	// Patience of -1 disables early stopping.
	Patience int `json:"early_stopping_patience" validate:"gte=-1"`
	// ExtraArgs is appended verbatim (after shell-style splitting) to the
	// rendered command line.
	ExtraArgs string `json:"extra_args"`
}

// EvalDefaults are the evaluation driver settings used unless overridden on
// the command line.
type EvalDefaults struct {
	// NumObs caps the number of examples scored, -1 means all.
	NumObs    int    `json:"n_obs" validate:"gte=-1"`
	Device    string `json:"device" validate:"required"`
	BatchSize int    `json:"batch_size" validate:"gte=1"`
	// RawInput selects the raw dataset layout with a separate query file.
	RawInput bool `json:"raw_input"`
	// Baseline zeroes out relevance conditioning in the driver.
	Baseline bool `json:"baseline"`
	// GenerationsName is the file the driver writes generated summaries to,
	// relative to the output directory.
	GenerationsName string `json:"generations_name" validate:"required"`
	// ScoresName is the metrics JSON file, relative to the output directory.
	ScoresName string `json:"scores_name" validate:"required"`
	ExtraArgs  string `json:"extra_args"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

// Dir returns the directory the configuration was loaded from.
func (c *Configuration) Dir() string {
	return c.configurationDir
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
