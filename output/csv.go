package output

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"

	"TrailZero/core"
)

// CSVHeader is the column order of CSV output
var CSVHeader = []string{
	"id",
	"source",
	"event_index",
	"name",
	"type",
	"date_time",
	"source_ip",
	"region",
	"user_agent",
	"user_name",
	"arn",
	"account_id",
	"request_parameters",
	"additional_event_data",
	"warning",
}

// CSVWriter implements the Writer interface for CSV output
type CSVWriter struct {
	mu          sync.Mutex
	file        *os.File
	bufWriter   *bufio.Writer
	writer      *csv.Writer
	recordCount int
	closed      bool
}

// NewCSVWriter creates a new CSV writer and writes the header row
func NewCSVWriter(outputPath string) (*CSVWriter, error) {
	file, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV file: %w", err)
	}

	bufWriter := bufio.NewWriterSize(file, 64*1024)
	writer := csv.NewWriter(bufWriter)

	if err := writer.Write(CSVHeader); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	return &CSVWriter{
		file:      file,
		bufWriter: bufWriter,
		writer:    writer,
	}, nil
}

// Write appends the record as one CSV row. Null values become empty cells.
func (w *CSVWriter) Write(record *core.Record) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return "", ErrWriterClosed
	}

	id := NewRecordID()
	row := []string{
		id,
		record.Source,
		strconv.Itoa(record.Index),
		core.StringValue(record.Name),
		core.StringValue(record.Type),
		formatEpoch(record.EpochSeconds),
		core.StringValue(record.SourceIP),
		core.StringValue(record.Region),
		core.StringValue(record.UserAgent),
		core.StringValue(record.UserName),
		core.StringValue(record.ARN),
		core.StringValue(record.AccountID),
		record.RequestParameters,
		record.AdditionalEventData,
		record.Warning,
	}

	if err := w.writer.Write(row); err != nil {
		return "", fmt.Errorf("failed to write CSV record: %w", err)
	}

	w.recordCount++
	if w.recordCount%10000 == 0 {
		w.writer.Flush()
		if err := w.writer.Error(); err != nil {
			return "", fmt.Errorf("failed to flush CSV writer: %w", err)
		}
	}

	return id, nil
}

// Close flushes and closes the CSV file
func (w *CSVWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}

	if err := w.bufWriter.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to flush buffer: %w", err)
	}

	return w.file.Close()
}

func formatEpoch(epoch *int64) string {
	if epoch == nil {
		return ""
	}
	return strconv.FormatInt(*epoch, 10)
}
