package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"TrailZero/app"
	"TrailZero/cli"
	"TrailZero/internal/logger"
	"TrailZero/internal/logrotate"
)

// Exit codes
const (
	ExitSuccess     = 0
	ExitError       = 1
	ExitWithErrors  = 2
	ExitInterrupted = 130
)

// exitError carries the exit code of a finished run
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	rootCmd := cli.NewRootCommand(run)
	if err := rootCmd.Execute(); err != nil {
		code := ExitError
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			code = exitErr.code
		}
		if code == ExitError {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(code)
	}
}

// run executes one batch in CLI mode
func run(cmd *cobra.Command, config *cli.Config) error {
	closeLog, err := initLogger(config)
	if err != nil {
		return err
	}
	defer func() {
		logger.SetOutput(os.Stderr)
		closeLog.Close()
	}()

	logger.Info("Starting TrailZero")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := app.New(cli.ConfigToAppConfig(config))
	if err := application.Initialize(ctx); err != nil {
		logger.Error("Failed to initialize: %v", err)
		return err
	}

	var progress func(processed, total int)
	if !config.JSONStatus {
		progress = func(processed, total int) {
			logger.PrintProgress(processed, total, "Processing")
		}
	}

	status, processErr := application.Process(ctx, progress)

	if err := application.Cleanup(); err != nil {
		logger.Error("Cleanup failed: %v", err)
		if processErr == nil {
			processErr = err
		}
	}

	if config.JSONStatus {
		if err := writeStatus(cmd.OutOrStdout(), status); err != nil {
			logger.Error("Failed to write status: %v", err)
		}
	}

	if processErr != nil {
		return processErr
	}

	switch status.Status {
	case app.StatusInterrupted:
		return &exitError{code: ExitInterrupted, err: errors.New(status.Summary)}
	case app.StatusErrors:
		return &exitError{code: ExitWithErrors, err: errors.New(status.Summary)}
	}
	return nil
}

// initLogger sets the log modes and tees the log to a rotating file when
// --log-file is given
func initLogger(config *cli.Config) (io.Closer, error) {
	logger.Init(config.Verbose, config.Silent)

	out, closer, err := logrotate.Tee(os.Stderr, config.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger.SetOutput(out)
	return closer, nil
}

func writeStatus(w io.Writer, status *app.ProcessStatus) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(status)
}
