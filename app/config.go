package app

import (
	"errors"
	"fmt"
	"strings"

	"TrailZero/output"
	"TrailZero/parsers"
)

// Common errors
var (
	ErrUnsupportedFormat = errors.New("unsupported output format")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidOutput     = errors.New("invalid output path")
)

// Config holds the configuration for one TrailZero run
type Config struct {
	// Input settings; exactly one of InputPath and S3Bucket is set
	InputPath string
	S3Bucket  string
	S3Prefix  string

	// Output settings
	OutputPath string
	Format     string

	// Processing settings
	Workers       int    // Number of files processed concurrently
	NameFilter    string // Case-insensitive substring a file name must contain
	DetectContent bool   // Also accept files whose content looks like CloudTrail
	ReadAttempts  int    // Attempts per file read, transient failures only
	MetricsFile   string // Prometheus textfile written after the run

	// UI settings
	Verbose    bool // Enable verbose logging
	Silent     bool // Disable all console output except errors
	JSONStatus bool // Output JSON status block to stdout
}

// NewDefaultConfig creates a new Config with default values
func NewDefaultConfig() *Config {
	return &Config{
		Format:       "jsonl",
		Workers:      1,
		NameFilter:   parsers.DefaultNameFilter,
		ReadAttempts: 3,
	}
}

// Validate checks the configuration and fills in defaults
func (c *Config) Validate() error {
	c.Format = strings.ToLower(c.Format)
	validFormat := false
	for _, format := range output.Formats {
		if c.Format == format {
			validFormat = true
			break
		}
	}
	if !validFormat {
		return fmt.Errorf("%w: %q (supported formats: %s)",
			ErrUnsupportedFormat, c.Format, strings.Join(output.Formats, ", "))
	}

	switch {
	case c.InputPath == "" && c.S3Bucket == "":
		return fmt.Errorf("%w: an input path or an S3 bucket is required", ErrInvalidInput)
	case c.InputPath != "" && c.S3Bucket != "":
		return fmt.Errorf("%w: input path and S3 bucket are mutually exclusive", ErrInvalidInput)
	case c.S3Prefix != "" && c.S3Bucket == "":
		return fmt.Errorf("%w: an S3 prefix requires an S3 bucket", ErrInvalidInput)
	}

	if c.OutputPath == "" {
		return fmt.Errorf("%w: an output path is required", ErrInvalidOutput)
	}

	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.ReadAttempts <= 0 {
		c.ReadAttempts = 1
	}
	if c.NameFilter == "" {
		c.NameFilter = parsers.DefaultNameFilter
	}

	return nil
}
