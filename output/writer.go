package output

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"TrailZero/core"
)

// Common errors
var (
	ErrUnsupportedFormat = errors.New("unsupported output format")
	ErrWriterClosed      = errors.New("writer is closed")
)

// RecordIDPrefix prefixes the identifier of every stored record
const RecordIDPrefix = "cloudtrail-record--"

// Formats lists the supported output formats
var Formats = []string{"jsonl", "csv", "sqlite"}

// Writer is the sink records are emitted to
type Writer interface {
	// Write stores one record and returns the identifier assigned to it
	Write(record *core.Record) (string, error)

	// Close closes the writer and performs any necessary cleanup
	Close() error
}

// NewRecordID returns a fresh record identifier
func NewRecordID() string {
	return RecordIDPrefix + uuid.New().String()
}

// GetWriter returns the appropriate writer for the given format
func GetWriter(format, outputPath string) (Writer, error) {
	format = strings.ToLower(format)

	switch format {
	case "csv":
		return NewCSVWriter(outputPath)
	case "jsonl":
		return NewJSONLWriter(outputPath)
	case "sqlite":
		return NewSQLiteWriter(outputPath)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// storedRecord is a record together with its identifier
type storedRecord struct {
	ID string `json:"id"`
	*core.Record
}
