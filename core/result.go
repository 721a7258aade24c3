package core

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// BatchResult is the aggregate outcome of one run. It is safe for concurrent
// use while the run is in progress.
type BatchResult struct {
	mu sync.Mutex

	FilesFound     int
	FilesProcessed int
	RecordsEmitted int
	RecordsLost    int
	Cancelled      bool
	Errors         []error
	Duration       time.Duration
}

// AddError appends an error to the result
func (r *BatchResult) AddError(err error) {
	if err == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, err)
}

// AddRecord counts one emitted record
func (r *BatchResult) AddRecord() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.RecordsEmitted++
}

// AddLost counts one record rejected by the sink
func (r *BatchResult) AddLost() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.RecordsLost++
}

// FileDone counts one processed file and returns the cumulative count
func (r *BatchResult) FileDone() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FilesProcessed++
	return r.FilesProcessed
}

// MarkCancelled records that the run stopped early
func (r *BatchResult) MarkCancelled() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Cancelled = true
}

// ErrorCount returns the number of collected errors
func (r *BatchResult) ErrorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Errors)
}

// CountErrors returns how many collected errors match target via errors.Is
func (r *BatchResult) CountErrors(target error) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, err := range r.Errors {
		if errors.Is(err, target) {
			n++
		}
	}
	return n
}

// Summary returns the one-line completion message for the run
func (r *BatchResult) Summary() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg := fmt.Sprintf("Found %d files, processed %d (%d records, %d errors)",
		r.FilesFound, r.FilesProcessed, r.RecordsEmitted, len(r.Errors))
	if r.Cancelled {
		msg += " [cancelled]"
	}
	return msg
}
