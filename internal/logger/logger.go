// Package logger is a small leveled logger shared by the whole tool.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Level orders log messages by severity
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelPrefixes = map[Level]string{
	LevelDebug: "[DEBUG] ",
	LevelInfo:  "[INFO] ",
	LevelWarn:  "[WARN] ",
	LevelError: "[ERROR] ",
}

var (
	mu sync.RWMutex

	defaultLogger = log.New(os.Stderr, "", log.LstdFlags)

	// Verbose mode
	verbose bool

	// Silent mode
	silent bool

	progressOut io.Writer = os.Stderr
)

// Init sets the logging modes. Silent suppresses everything below errors,
// verbose enables debug messages.
func Init(verboseMode bool, silentMode bool) {
	mu.Lock()
	defer mu.Unlock()

	verbose = verboseMode
	silent = silentMode
	defaultLogger.SetFlags(log.LstdFlags)
}

// SetOutput sets the output destination for the logger
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	defaultLogger.SetOutput(w)
	log.SetOutput(w)
}

// SetProgressOutput sets where progress lines are printed
func SetProgressOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	progressOut = w
}

// Enabled reports whether messages of the given level are written
func Enabled(level Level) bool {
	mu.RLock()
	defer mu.RUnlock()

	switch {
	case level >= LevelError:
		return true
	case silent:
		return false
	case level == LevelDebug:
		return verbose
	default:
		return true
	}
}

func logf(level Level, format string, v ...interface{}) {
	if !Enabled(level) {
		return
	}
	defaultLogger.Printf(levelPrefixes[level]+format, v...)
}

// Info logs an informational message
func Info(format string, v ...interface{}) {
	logf(LevelInfo, format, v...)
}

// Debug logs a debug message (only in verbose mode)
func Debug(format string, v ...interface{}) {
	logf(LevelDebug, format, v...)
}

// Warn logs a warning message
func Warn(format string, v ...interface{}) {
	logf(LevelWarn, format, v...)
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	logf(LevelError, format, v...)
}

// Fatal logs a fatal error message and exits
func Fatal(format string, v ...interface{}) {
	defaultLogger.Fatalf("[FATAL] "+format, v...)
}

// IsVerbose returns true if verbose mode is enabled
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// IsSilent returns true if silent mode is enabled
func IsSilent() bool {
	mu.RLock()
	defer mu.RUnlock()
	return silent
}

// PrintProgress prints a progress line, overwriting the previous one
func PrintProgress(current, total int, message string) {
	if IsSilent() {
		return
	}

	mu.RLock()
	out := progressOut
	mu.RUnlock()

	if total > 0 {
		percentage := float64(current) / float64(total) * 100
		fmt.Fprintf(out, "\r%s: %.1f%% (%d/%d)", message, percentage, current, total)
		if current == total {
			fmt.Fprintln(out)
		}
	} else {
		fmt.Fprintf(out, "\r%s: %d", message, current)
	}
}
