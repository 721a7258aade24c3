package parsers

import (
	"errors"
	"iter"

	"TrailZero/core"
)

// Common errors
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Parser defines the interface for document parsers
type Parser interface {
	// Parse decodes a document into an ordered sequence of records. The
	// error of each pair reports a per-event problem; the returned error
	// reports a document that could not be decoded at all.
	Parse(doc *core.Document) (iter.Seq2[*core.Record, error], error)

	// CanParse checks if this parser can handle a file with the given name
	CanParse(name string) bool
}

// GetParserForFile returns the appropriate parser for the given file name
func GetParserForFile(name string) (Parser, error) {
	cloudTrailParser := &CloudTrailParser{}
	if cloudTrailParser.CanParse(name) {
		return cloudTrailParser, nil
	}
	return nil, ErrUnsupportedFormat
}
