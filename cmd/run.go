package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"qfsrun/core/config"
	"qfsrun/core/dataset"
	"qfsrun/core/pipeline"
)

// signalContext returns a context canceled on interrupt so a Ctrl-C tears
// down the driver process instead of orphaning it.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// newRunner builds a runner for the command. Real runs append to the run
// log in the output directory; the returned cleanup closes it.
func newRunner(cmd *cobra.Command, cfg *config.Configuration, dryRun bool) (*pipeline.Runner, func(), error) {
	if dryRun {
		runner := pipeline.NewRunner(cmd.OutOrStdout(), cmd.ErrOrStderr(), nil)
		runner.DryRun = true
		return runner, func() {}, nil
	}

	outputDir := cfg.ResolvePath(cfg.OutputDir)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, nil, err
	}

	logFile, err := os.OpenFile(filepath.Join(outputDir, config.RunLogName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}

	runner := pipeline.NewRunner(cmd.OutOrStdout(), cmd.ErrOrStderr(), pipeline.NewJSONLinesRunLog(logFile))
	return runner, func() { logFile.Close() }, nil
}

// preflight validates the dataset directory before spawning a driver.
func preflight(cmd *cobra.Command, dataDir string, raw bool) error {
	report, err := dataset.Check(afero.NewOsFs(), dataDir, raw)
	if err != nil {
		return err
	}
	return printReport(cmd, report)
}

// saveGitInfo records the pipeline checkout state next to the run outputs.
// The original tooling refuses to train without it; here a checkout-less
// install just logs a warning.
func saveGitInfo(cfg *config.Configuration) {
	scriptDir := filepath.Dir(cfg.ResolvePath(cfg.FinetuneScript))
	info, err := pipeline.LookupGitInfo(scriptDir)
	if err != nil {
		log.Printf("Couldn't read git state of %q: %v", scriptDir, err)
		return
	}
	if err := info.Save(cfg.ResolvePath(cfg.OutputDir), config.GitLogName); err != nil {
		log.Printf("Couldn't write %s: %v", config.GitLogName, err)
	}
}
