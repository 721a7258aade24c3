package core

import (
	"errors"
	"fmt"
)

// Error kinds reported in a BatchResult
var (
	ErrDocumentDecode  = errors.New("document decode failed")
	ErrTimestampFormat = errors.New("invalid timestamp format")
	ErrEvent           = errors.New("invalid event")
	ErrSinkWrite       = errors.New("sink write failed")
)

// DocumentDecodeError reports a file whose content could not be read or
// decoded as a single JSON document. No records are produced for it.
type DocumentDecodeError struct {
	Source string
	Err    error
}

func (e *DocumentDecodeError) Error() string {
	return fmt.Sprintf("could not parse JSON data from file %s: %v", e.Source, e.Err)
}

func (e *DocumentDecodeError) Unwrap() error { return e.Err }

func (e *DocumentDecodeError) Is(target error) bool { return target == ErrDocumentDecode }

// TimestampFormatError reports an eventTime that does not match
// YYYY-MM-DDTHH:MM:SSZ. Source and Index are empty when the error comes
// straight from the normalizer.
type TimestampFormatError struct {
	Source string
	Index  int
	Value  string
}

func (e *TimestampFormatError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("invalid timestamp %q: expected YYYY-MM-DDTHH:MM:SSZ", e.Value)
	}
	return fmt.Sprintf("%s: event %d: invalid timestamp %q: expected YYYY-MM-DDTHH:MM:SSZ", e.Source, e.Index, e.Value)
}

func (e *TimestampFormatError) Is(target error) bool { return target == ErrTimestampFormat }

// EventError reports an element of the Records array that could not be
// turned into a record
type EventError struct {
	Source string
	Index  int
	Err    error
}

func (e *EventError) Error() string {
	return fmt.Sprintf("%s: event %d: %v", e.Source, e.Index, e.Err)
}

func (e *EventError) Unwrap() error { return e.Err }

func (e *EventError) Is(target error) bool { return target == ErrEvent }

// SinkWriteError reports a record rejected by the output writer. The record
// is lost for this run.
type SinkWriteError struct {
	Source string
	Index  int
	Err    error
}

func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("%s: event %d: failed to write record: %v", e.Source, e.Index, e.Err)
}

func (e *SinkWriteError) Unwrap() error { return e.Err }

func (e *SinkWriteError) Is(target error) bool { return target == ErrSinkWrite }
