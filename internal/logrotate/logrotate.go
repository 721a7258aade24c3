package logrotate

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/lumberjack"
	"github.com/pkg/errors"
)

// DefaultConfig provides default configuration for log rotation
var DefaultConfig = Config{
	MaxSize:    100, // megabytes
	MaxAge:     7,   // days
	MaxBackups: 5,
	Compress:   true,
	LocalTime:  true,
}

// Config configures the log rotation behavior
type Config struct {
	// Filename is the log file; empty disables file logging
	Filename string

	// MaxSize is the maximum size in megabytes of the log file before it gets rotated
	MaxSize int

	// MaxAge is the maximum number of days to retain old log files
	MaxAge int

	// MaxBackups is the maximum number of old log files to retain
	MaxBackups int

	// Compress determines if the rotated log files should be compressed using gzip
	Compress bool

	// LocalTime determines if the time used for formatting the timestamps in
	// backup files is the computer's local time
	LocalTime bool
}

// Writer is a mutex guarded lumberjack.Logger
type Writer struct {
	logger *lumberjack.Logger
	mu     sync.Mutex
}

// NewWriter creates a rotating writer for config.Filename, creating its
// directory if needed
func NewWriter(config Config) (*Writer, error) {
	if config.Filename == "" {
		return nil, errors.New("log file name is empty")
	}

	dir := filepath.Dir(config.Filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create log directory %s", dir)
	}

	return &Writer{
		logger: &lumberjack.Logger{
			Filename:   config.Filename,
			MaxSize:    config.MaxSize,
			MaxAge:     config.MaxAge,
			MaxBackups: config.MaxBackups,
			Compress:   config.Compress,
			LocalTime:  config.LocalTime,
		},
	}, nil
}

// Write implements io.Writer
func (w *Writer) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.logger.Write(p)
}

// Rotate closes the current file and starts a new one
func (w *Writer) Rotate() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.logger.Rotate()
}

// Close implements io.Closer
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.logger.Close()
}

// Tee returns a writer that duplicates writes to console and, when
// config.Filename is set, to a rotating log file. The returned closer
// releases the log file.
func Tee(console io.Writer, config Config) (io.Writer, io.Closer, error) {
	if config.Filename == "" {
		return console, nopCloser{}, nil
	}

	w, err := NewWriter(config)
	if err != nil {
		return nil, nil, err
	}
	return io.MultiWriter(console, w), w, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
