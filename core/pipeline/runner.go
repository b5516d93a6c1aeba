package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// Runner executes rendered commands and records their outcomes.
type Runner struct {
	// Stdout and Stderr receive the driver's output streams.
	Stdout io.Writer
	Stderr io.Writer

	// Log receives start/exit events. Never nil after NewRunner.
	Log *RunLog

	// DryRun prints the command instead of executing it.
	DryRun bool
}

func NewRunner(stdout, stderr io.Writer, log *RunLog) *Runner {
	if log == nil {
		log = DiscardRunLog()
	}
	return &Runner{Stdout: stdout, Stderr: stderr, Log: log}
}

// Run executes the command, streaming output until it exits or ctx is
// canceled. A non-zero driver exit is returned as an error carrying the
// exit status.
func (r *Runner) Run(ctx context.Context, cmd *Command) error {
	if r.DryRun {
		_, err := fmt.Fprintln(r.Stdout, cmd.String())
		return err
	}

	proc := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	proc.Stdout = r.Stdout
	proc.Stderr = r.Stderr
	// Later entries win, so the config's environment overrides the parent's.
	proc.Env = append(os.Environ(), cmd.Env...)

	if err := r.Log.record(&Event{
		Action:      "start",
		Driver:      cmd.Driver,
		CommandLine: cmd.String(),
	}); err != nil {
		return err
	}

	started := time.Now()
	runErr := proc.Run()

	exit := &Event{
		Action:         "exit",
		Driver:         cmd.Driver,
		CommandLine:    cmd.String(),
		DurationMillis: time.Since(started).Milliseconds(),
	}
	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
		// ExitCode stays zero.
	case errors.As(runErr, &exitErr):
		exit.ExitCode = exitErr.ExitCode()
		exit.Error = runErr.Error()
	default:
		exit.ExitCode = -1
		exit.Error = runErr.Error()
	}
	if err := r.Log.record(exit); err != nil {
		return err
	}

	if runErr != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s driver interrupted: %w", cmd.Driver, ctx.Err())
		}
		return fmt.Errorf("%s driver failed: %w", cmd.Driver, runErr)
	}
	return nil
}
