package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"TrailZero/core"
	"TrailZero/internal/logger"
	"TrailZero/internal/metrics"
	"TrailZero/internal/processor"
	"TrailZero/internal/retry"
	"TrailZero/output"
	"TrailZero/parsers"
	"TrailZero/source"
)

// Run states reported in ProcessStatus.Status
const (
	StatusSuccess     = "success"
	StatusErrors      = "completed_with_errors"
	StatusInterrupted = "interrupted"
)

// ProcessStatus represents the status of the processing operation
type ProcessStatus struct {
	Status         string `json:"status"`
	FilesFound     int    `json:"files_found"`
	FilesProcessed int    `json:"files_processed"`
	RecordsEmitted int    `json:"records_emitted"`
	RecordsLost    int    `json:"records_lost"`
	Errors         int    `json:"errors"`
	DurationMs     int64  `json:"duration_ms"`
	Summary        string `json:"summary"`
	Error          string `json:"error,omitempty"`
}

// NewProcessStatus condenses a batch result
func NewProcessStatus(result *core.BatchResult) *ProcessStatus {
	status := &ProcessStatus{
		Status:         StatusSuccess,
		FilesFound:     result.FilesFound,
		FilesProcessed: result.FilesProcessed,
		RecordsEmitted: result.RecordsEmitted,
		RecordsLost:    result.RecordsLost,
		Errors:         result.ErrorCount(),
		DurationMs:     result.Duration.Milliseconds(),
		Summary:        result.Summary(),
	}

	switch {
	case result.Cancelled:
		status.Status = StatusInterrupted
		status.Error = "Processing was interrupted"
	case status.Errors > 0:
		status.Status = StatusErrors
		status.Error = result.Errors[0].Error()
	}
	return status
}

// Option configures an App
type Option func(*App)

// WithSource replaces the source built from the configuration
func WithSource(src source.Source) Option {
	return func(a *App) { a.source = src }
}

// WithNotifier sets where the run summary is delivered; the default logs it
func WithNotifier(notifier processor.Notifier) Option {
	return func(a *App) { a.notifier = notifier }
}

// WithCancelled sets a cancellation poll checked before each file
func WithCancelled(cancelled func() bool) Option {
	return func(a *App) { a.cancelled = cancelled }
}

// App represents the TrailZero application
type App struct {
	Config *Config

	source    source.Source
	writer    output.Writer
	notifier  processor.Notifier
	cancelled func() bool
}

// New creates a new TrailZero application instance
func New(config *Config, opts ...Option) *App {
	a := &App{
		Config:   config,
		notifier: processor.LogNotifier{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Initialize validates the configuration and creates the source and writer
func (a *App) Initialize(ctx context.Context) error {
	if err := a.Config.Validate(); err != nil {
		return err
	}

	logger.Info("TrailZero initializing...")
	logger.Info("Input: %s", a.inputName())
	logger.Info("Output path: %s", a.Config.OutputPath)
	logger.Info("Format: %s", a.Config.Format)

	if a.source == nil {
		src, err := a.newSource(ctx)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		a.source = src
	}

	if err := a.validateOutputPath(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}

	var err error
	a.writer, err = output.GetWriter(a.Config.Format, a.Config.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to create output writer: %w", err)
	}

	return nil
}

// Process runs the batch and returns its status. The returned error is only
// set when the metrics file could not be written.
func (a *App) Process(ctx context.Context, progress processor.ProgressFunc) (*ProcessStatus, error) {
	deps := processor.Deps{
		Source:    a.source,
		Writer:    a.writer,
		Notifier:  a.notifier,
		Cancelled: a.cancelled,
		Progress:  progress,
		Parser:    a.parser(),
	}
	proc := processor.New(deps,
		processor.WithWorkers(a.Config.Workers),
		processor.WithReadRetry(a.readRetry()),
	)

	result := proc.Run(ctx)
	status := NewProcessStatus(result)

	switch status.Status {
	case StatusInterrupted:
		logger.Info("Processing was interrupted")
	default:
		logger.Info("Processing completed in %v", result.Duration.Round(time.Millisecond))
	}

	if a.Config.MetricsFile != "" {
		if err := metrics.WriteTextfile(a.Config.MetricsFile); err != nil {
			return status, fmt.Errorf("failed to write metrics file: %w", err)
		}
		logger.Debug("Metrics written to %s", a.Config.MetricsFile)
	}

	return status, nil
}

// Cleanup closes the output writer
func (a *App) Cleanup() error {
	if a.writer != nil {
		return a.writer.Close()
	}
	return nil
}

func (a *App) parser() *parsers.CloudTrailParser {
	return &parsers.CloudTrailParser{NameFilter: a.Config.NameFilter}
}

func (a *App) readRetry() retry.Config {
	config := retry.DefaultConfig
	config.MaxAttempts = a.Config.ReadAttempts
	return config
}

func (a *App) newSource(ctx context.Context) (source.Source, error) {
	parser := a.parser()

	if a.Config.S3Bucket != "" {
		client, err := source.NewS3Client(ctx)
		if err != nil {
			return nil, err
		}
		return source.NewS3Source(client, a.Config.S3Bucket, a.Config.S3Prefix, parser.CanParse), nil
	}

	if _, err := os.Stat(a.Config.InputPath); err != nil {
		return nil, err
	}

	var opts []source.FsOption
	if a.Config.DetectContent {
		opts = append(opts, source.WithSniffer(parser.DetectContent))
	}
	return source.NewOsSource(a.Config.InputPath, parser.CanParse, opts...), nil
}

func (a *App) inputName() string {
	if a.Config.S3Bucket != "" {
		return fmt.Sprintf("s3://%s/%s", a.Config.S3Bucket, a.Config.S3Prefix)
	}
	return a.Config.InputPath
}

// validateOutputPath creates the output directory if needed
func (a *App) validateOutputPath() error {
	outputDir := filepath.Dir(a.Config.OutputPath)
	if _, err := os.Stat(outputDir); err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(outputDir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			return nil
		}
		return err
	}
	return nil
}
