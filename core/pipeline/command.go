package pipeline

import (
	"os"
	"strings"

	"qfsrun/core/config"
)

// Command is a fully rendered driver invocation ready to execute.
type Command struct {
	// Driver names the entry point kind, "finetune" or "evaluate".
	Driver string
	// Path is the interpreter binary.
	Path string
	// Args holds the script path followed by its flags.
	Args []string
	// Env holds extra environment entries layered over the parent's.
	Env []string
}

// Launcher renders driver invocations from the configuration.
type Launcher struct {
	cfg *config.Configuration
}

func NewLauncher(cfg *config.Configuration) *Launcher {
	return &Launcher{cfg: cfg}
}

// Finetune renders the fine-tuning driver invocation.
func (l *Launcher) Finetune(opts FinetuneOptions) (*Command, error) {
	args, err := opts.Args()
	if err != nil {
		return nil, err
	}

	return &Command{
		Driver: "finetune",
		Path:   l.cfg.Python,
		Args:   append([]string{l.cfg.ResolvePath(l.cfg.FinetuneScript)}, args...),
		Env:    l.environ(),
	}, nil
}

// Evaluate renders the evaluation driver invocation.
func (l *Launcher) Evaluate(opts EvalOptions) (*Command, error) {
	args, err := opts.Args()
	if err != nil {
		return nil, err
	}

	return &Command{
		Driver: "evaluate",
		Path:   l.cfg.Python,
		Args:   append([]string{l.cfg.ResolvePath(l.cfg.EvalScript)}, args...),
		Env:    l.environ(),
	}, nil
}

// environ builds the extra environment for a driver process.
func (l *Launcher) environ() []string {
	var env []string
	if l.cfg.CUDADevices != "" {
		env = append(env, "CUDA_VISIBLE_DEVICES="+l.cfg.CUDADevices)
	}
	if len(l.cfg.PythonPath) > 0 {
		entries := make([]string, 0, len(l.cfg.PythonPath)+1)
		for _, p := range l.cfg.PythonPath {
			entries = append(entries, l.cfg.ResolvePath(p))
		}
		if parent := os.Getenv("PYTHONPATH"); parent != "" {
			entries = append(entries, parent)
		}
		env = append(env, "PYTHONPATH="+strings.Join(entries, string(os.PathListSeparator)))
	}
	return env
}

// String renders the invocation as a copy-pasteable shell line.
func (c *Command) String() string {
	parts := make([]string, 0, len(c.Env)+len(c.Args)+1)
	for _, e := range c.Env {
		parts = append(parts, shellQuote(e))
	}
	parts = append(parts, shellQuote(c.Path))
	for _, a := range c.Args {
		parts = append(parts, shellQuote(a))
	}
	return strings.Join(parts, " ")
}

const shellSafe = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_-./=,:"

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	for _, r := range s {
		if !strings.ContainsRune(shellSafe, r) {
			return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
		}
	}
	return s
}
