package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"TrailZero/core"
)

// JSONLWriter writes one JSON object per record
type JSONLWriter struct {
	mu          sync.Mutex
	file        *os.File
	writer      *bufio.Writer
	encoder     *json.Encoder
	recordCount int
	closed      bool
}

// NewJSONLWriter creates a new JSON Lines writer
func NewJSONLWriter(outputPath string) (*JSONLWriter, error) {
	file, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create JSONL file: %w", err)
	}

	// 64KB buffer, the default 4KB causes a syscall every few records
	writer := bufio.NewWriterSize(file, 64*1024)

	encoder := json.NewEncoder(writer)
	encoder.SetEscapeHTML(false)

	return &JSONLWriter{
		file:    file,
		writer:  writer,
		encoder: encoder,
	}, nil
}

// Write appends the record to the JSON Lines file
func (w *JSONLWriter) Write(record *core.Record) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return "", ErrWriterClosed
	}

	id := NewRecordID()
	if err := w.encoder.Encode(storedRecord{ID: id, Record: record}); err != nil {
		return "", fmt.Errorf("failed to encode record to JSON: %w", err)
	}

	w.recordCount++
	if w.recordCount%10000 == 0 {
		if err := w.writer.Flush(); err != nil {
			return "", fmt.Errorf("failed to flush JSONL writer: %w", err)
		}
	}

	return id, nil
}

// Close flushes and closes the JSON Lines file
func (w *JSONLWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.writer.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to flush JSONL writer: %w", err)
	}

	return w.file.Close()
}
