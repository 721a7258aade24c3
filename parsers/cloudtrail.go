package parsers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"TrailZero/core"
)

// DefaultNameFilter is matched case-insensitively against file base names
const DefaultNameFilter = "CloudTrail"

// recordsKey holds the event array in every CloudTrail log export
const recordsKey = "Records"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CloudTrailParser implements the Parser interface for AWS CloudTrail JSON logs.
// It keeps no state between documents and is safe for concurrent use.
type CloudTrailParser struct {
	// NameFilter overrides DefaultNameFilter when set
	NameFilter string
}

// CanParse checks if the file name looks like a CloudTrail log
func (p *CloudTrailParser) CanParse(name string) bool {
	filter := p.NameFilter
	if filter == "" {
		filter = DefaultNameFilter
	}
	baseName := strings.ToLower(filepath.Base(name))
	return strings.Contains(baseName, strings.ToLower(filter))
}

// DetectContent checks if the head of a file carries CloudTrail-specific keys
func (p *CloudTrailParser) DetectContent(head []byte) bool {
	content := string(head)
	return strings.Contains(content, "\""+recordsKey+"\"") &&
		strings.Contains(content, "\"eventName\"") &&
		strings.Contains(content, "\"awsRegion\"")
}

// Parse decodes one document and returns its events as an ordered sequence.
//
// A document that is not exactly one JSON value fails with a
// *core.DocumentDecodeError and no sequence. A document without a Records
// array yields nothing. Each element yields its record; an event whose
// eventTime cannot be normalized still yields a record (with a nil
// EpochSeconds) together with its *core.TimestampFormatError, and an element
// that is not an object yields a nil record and a *core.EventError.
func (p *CloudTrailParser) Parse(doc *core.Document) (iter.Seq2[*core.Record, error], error) {
	content := bytes.TrimPrefix(doc.Content, utf8BOM)

	// Validate the whole document up front, trailing data included
	var raw json.RawMessage
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, &core.DocumentDecodeError{Source: doc.Source, Err: err}
	}

	records := gjson.GetBytes(content, recordsKey)
	if !records.IsArray() {
		return func(yield func(*core.Record, error) bool) {}, nil
	}
	elements := records.Array()

	return func(yield func(*core.Record, error) bool) {
		for i, element := range elements {
			record, err := p.processCloudTrailEvent(doc.Source, i, element)
			if !yield(record, err) {
				return
			}
		}
	}, nil
}

// processCloudTrailEvent turns one element of the Records array into a record
func (p *CloudTrailParser) processCloudTrailEvent(source string, index int, element gjson.Result) (*core.Record, error) {
	if !element.IsObject() {
		return nil, &core.EventError{
			Source: source,
			Index:  index,
			Err:    fmt.Errorf("expected JSON object, got %s", describeJSON(element)),
		}
	}

	// Keep numbers verbatim so nested structures re-encode without loss
	decoder := json.NewDecoder(strings.NewReader(element.Raw))
	decoder.UseNumber()
	var rawEvent map[string]interface{}
	if err := decoder.Decode(&rawEvent); err != nil {
		return nil, &core.EventError{Source: source, Index: index, Err: err}
	}

	fields := ExtractFields(rawEvent)

	var epoch *int64
	var tsErr *core.TimestampFormatError
	if seconds, err := NormalizeTimestamp(fields.EventTime); err != nil {
		tsErr = &core.TimestampFormatError{Source: source, Index: index, Value: fields.EventTime}
	} else {
		epoch = &seconds
	}

	record, err := core.BuildRecord(source, index, fields, epoch)
	if err != nil {
		return nil, &core.EventError{Source: source, Index: index, Err: err}
	}

	if tsErr != nil {
		record.Warning = tsErr.Error()
		return record, tsErr
	}
	return record, nil
}

// describeJSON names the JSON type of a gjson result for error messages
func describeJSON(r gjson.Result) string {
	switch {
	case r.IsArray():
		return "array"
	case r.Type == gjson.String:
		return "string"
	case r.Type == gjson.Number:
		return "number"
	case r.Type == gjson.True, r.Type == gjson.False:
		return "boolean"
	default:
		return "null"
	}
}

// Collect drains a parse sequence into records and per-event errors
func Collect(seq iter.Seq2[*core.Record, error]) ([]*core.Record, []error) {
	records := make([]*core.Record, 0)
	var errs []error
	for record, err := range seq {
		if record != nil {
			records = append(records, record)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return records, errs
}
