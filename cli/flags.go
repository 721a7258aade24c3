package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"TrailZero/internal/logrotate"
	"TrailZero/output"
	"TrailZero/parsers"
)

// Config holds the command-line configuration for TrailZero
type Config struct {
	InputPath     string
	S3Bucket      string
	S3Prefix      string
	OutputPath    string
	Format        string
	Workers       int    // Number of files processed concurrently
	NameFilter    string // Substring a candidate file name must contain
	DetectContent bool   // Sniff file content when the name does not match
	ReadAttempts  int    // Attempts per file read
	MetricsFile   string // Prometheus textfile written after the run
	Verbose       bool
	Silent        bool // Disable all console output except errors
	JSONStatus    bool // Output JSON status block to stdout

	Log logrotate.Config
}

// RunFunc executes a run with the parsed configuration
type RunFunc func(cmd *cobra.Command, config *Config) error

// NewRootCommand creates the trailzero command. Flags are bound to a fresh
// Config which is handed to run after validation.
func NewRootCommand(run RunFunc) *cobra.Command {
	config := &Config{}

	rootCmd := &cobra.Command{
		Use:   "trailzero (--input <path> | --s3-bucket <bucket>) --output <path>",
		Short: "Normalize AWS CloudTrail logs into forensic records",
		Long: `TrailZero finds CloudTrail log files in a directory, a disk image mount
or an S3 bucket and writes one normalized record per event as JSON Lines,
CSV or SQLite.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.validate(); err != nil {
				return err
			}
			return run(cmd, config)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&config.InputPath, "input", "i", "", "Path to input file or directory")
	flags.StringVar(&config.S3Bucket, "s3-bucket", "", "S3 bucket holding CloudTrail logs")
	flags.StringVar(&config.S3Prefix, "s3-prefix", "", "Key prefix inside the S3 bucket")
	flags.StringVarP(&config.OutputPath, "output", "o", "", "Path for output file")
	flags.StringVarP(&config.Format, "format", "f", "jsonl", "Output format ("+strings.Join(output.Formats, ", ")+")")
	flags.IntVarP(&config.Workers, "workers", "w", 1, "Number of files processed concurrently")
	flags.StringVar(&config.NameFilter, "filter", parsers.DefaultNameFilter, "Case-insensitive substring a file name must contain")
	flags.BoolVar(&config.DetectContent, "detect-content", false, "Also accept files whose content looks like CloudTrail")
	flags.IntVar(&config.ReadAttempts, "read-attempts", 3, "Maximum attempts for reading a file")
	flags.StringVar(&config.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run")
	flags.BoolVarP(&config.Verbose, "verbose", "v", false, "Enable verbose logging")
	flags.BoolVar(&config.Silent, "silent", false, "Disable all console output except errors")
	flags.BoolVar(&config.JSONStatus, "json-status", false, "Output JSON status block to stdout")

	flags.StringVar(&config.Log.Filename, "log-file", "", "Also write logs to this file, with rotation")
	flags.IntVar(&config.Log.MaxSize, "log-max-size", logrotate.DefaultConfig.MaxSize, "Maximum size of log file in megabytes before rotation")
	flags.IntVar(&config.Log.MaxAge, "log-max-age", logrotate.DefaultConfig.MaxAge, "Maximum age of log file in days before rotation")
	flags.IntVar(&config.Log.MaxBackups, "log-max-backups", logrotate.DefaultConfig.MaxBackups, "Maximum number of old log files to retain")
	flags.BoolVar(&config.Log.Compress, "log-compress", logrotate.DefaultConfig.Compress, "Compress rotated log files")
	config.Log.LocalTime = logrotate.DefaultConfig.LocalTime

	return rootCmd
}

// validate checks what can be checked without touching the input
func (c *Config) validate() error {
	if c.InputPath == "" && c.S3Bucket == "" {
		return fmt.Errorf("--input or --s3-bucket is required")
	}
	if c.InputPath != "" && c.S3Bucket != "" {
		return fmt.Errorf("--input and --s3-bucket are mutually exclusive")
	}
	if c.OutputPath == "" {
		return fmt.Errorf("--output flag is required")
	}

	c.Format = strings.ToLower(c.Format)
	for _, format := range output.Formats {
		if c.Format == format {
			return nil
		}
	}
	return fmt.Errorf("unsupported format: %s (supported formats: %s)",
		c.Format, strings.Join(output.Formats, ", "))
}
