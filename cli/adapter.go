package cli

import (
	"TrailZero/app"
)

// ConfigToAppConfig converts a CLI Config to an app.Config
func ConfigToAppConfig(cliConfig *Config) *app.Config {
	return &app.Config{
		InputPath:     cliConfig.InputPath,
		S3Bucket:      cliConfig.S3Bucket,
		S3Prefix:      cliConfig.S3Prefix,
		OutputPath:    cliConfig.OutputPath,
		Format:        cliConfig.Format,
		Workers:       cliConfig.Workers,
		NameFilter:    cliConfig.NameFilter,
		DetectContent: cliConfig.DetectContent,
		ReadAttempts:  cliConfig.ReadAttempts,
		MetricsFile:   cliConfig.MetricsFile,
		Verbose:       cliConfig.Verbose,
		Silent:        cliConfig.Silent,
		JSONStatus:    cliConfig.JSONStatus,
	}
}
