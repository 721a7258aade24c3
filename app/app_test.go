package app

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrailZero/internal/processor"
	"TrailZero/source"
)

const consoleLogin = `{"Records":[{
	"eventName":"ConsoleLogin",
	"eventType":"AwsConsoleSignIn",
	"eventTime":"2023-06-01T12:00:00Z",
	"sourceIPAddress":"203.0.113.5",
	"awsRegion":"us-east-1",
	"userAgent":"Mozilla/5.0",
	"userIdentity":{"userName":"alice","accountId":"123456789012"},
	"additionalEventData":{"MFAUsed":"No"}
}]}`

func writeEvidence(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	logDir := filepath.Join(dir, "AWSLogs", "123456789012", "CloudTrail")
	require.NoError(t, os.MkdirAll(logDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(logDir, "123456789012_CloudTrail_us-east-1_1.json"), []byte(consoleLogin), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(logDir, "123456789012_CloudTrail_us-east-1_2.json"), []byte("not json"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("case notes"), 0644))
	return dir
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	n := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		n++
	}
	require.NoError(t, scanner.Err())
	return n
}

func TestProcessDirectory(t *testing.T) {
	config := NewDefaultConfig()
	config.InputPath = writeEvidence(t)
	config.OutputPath = filepath.Join(t.TempDir(), "out", "records.jsonl")
	config.MetricsFile = filepath.Join(t.TempDir(), "trailzero.prom")

	var messages []string
	application := New(config, WithNotifier(processor.NotifierFunc(func(m string) {
		messages = append(messages, m)
	})))
	require.NoError(t, application.Initialize(context.Background()))

	status, err := application.Process(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, application.Cleanup())

	assert.Equal(t, StatusErrors, status.Status)
	assert.Equal(t, 2, status.FilesFound)
	assert.Equal(t, 2, status.FilesProcessed)
	assert.Equal(t, 1, status.RecordsEmitted)
	assert.Equal(t, 1, status.Errors)
	assert.Contains(t, status.Error, "could not parse JSON data")
	assert.Equal(t, []string{"Found 2 files, processed 2 (1 records, 1 errors)"}, messages)
	assert.Equal(t, messages[0], status.Summary)

	assert.Equal(t, 1, countLines(t, config.OutputPath))
	assert.FileExists(t, config.MetricsFile)
}

func TestProcessWithSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/image/export.json", []byte(consoleLogin), 0644))

	config := NewDefaultConfig()
	config.InputPath = "/image"
	config.OutputPath = filepath.Join(t.TempDir(), "records.csv")
	config.Format = "csv"

	rejectAll := func(name string) bool { return false }
	src := source.NewFsSource(fs, "/image", rejectAll, source.WithSniffer(func(head []byte) bool { return true }))

	application := New(config, WithSource(src))
	require.NoError(t, application.Initialize(context.Background()))
	status, err := application.Process(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, application.Cleanup())

	assert.Equal(t, StatusSuccess, status.Status)
	assert.Equal(t, 1, status.RecordsEmitted)
	assert.Equal(t, 2, countLines(t, config.OutputPath))
}

func TestProcessInterrupted(t *testing.T) {
	config := NewDefaultConfig()
	config.InputPath = writeEvidence(t)
	config.OutputPath = filepath.Join(t.TempDir(), "records.db")
	config.Format = "sqlite"

	application := New(config, WithCancelled(func() bool { return true }))
	require.NoError(t, application.Initialize(context.Background()))
	defer application.Cleanup()

	var progress []int
	status, err := application.Process(context.Background(), func(processed, total int) {
		progress = append(progress, processed)
	})
	require.NoError(t, err)

	assert.Equal(t, StatusInterrupted, status.Status)
	assert.Equal(t, 0, status.FilesProcessed)
	assert.Empty(t, progress)
	assert.Contains(t, status.Summary, "[cancelled]")
}

func TestInitializeErrors(t *testing.T) {
	config := NewDefaultConfig()
	config.InputPath = filepath.Join(t.TempDir(), "missing")
	config.OutputPath = filepath.Join(t.TempDir(), "records.jsonl")

	err := New(config).Initialize(context.Background())
	assert.True(t, errors.Is(err, ErrInvalidInput))

	config = NewDefaultConfig()
	config.OutputPath = filepath.Join(t.TempDir(), "records.jsonl")
	err = New(config).Initialize(context.Background())
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
