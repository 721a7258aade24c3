package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Document is the full content of one candidate log file
type Document struct {
	Source  string
	Content []byte
}

// Fields holds the values extracted from a single CloudTrail event.
// A nil string pointer means the key was absent, null or not a string.
type Fields struct {
	Name      *string
	Type      *string
	EventTime string // resolved eventTime, or the epoch default when absent
	SourceIP  *string
	Region    *string
	UserAgent *string

	// Taken from the nested userIdentity object
	UserName  *string
	ARN       *string
	AccountID *string

	// Opaque decoded JSON values, serialized by BuildRecord
	RequestParameters   interface{}
	AdditionalEventData interface{}
}

// Record is the normalized form of one CloudTrail event
type Record struct {
	Source              string  `json:"source"`
	Index               int     `json:"event_index"`
	Name                *string `json:"name"`
	Type                *string `json:"type"`
	EpochSeconds        *int64  `json:"date_time"`
	SourceIP            *string `json:"source_ip"`
	Region              *string `json:"region"`
	UserAgent           *string `json:"user_agent"`
	UserName            *string `json:"user_name"`
	ARN                 *string `json:"arn"`
	AccountID           *string `json:"account_id"`
	RequestParameters   string  `json:"request_parameters"`
	AdditionalEventData string  `json:"additional_event_data"`
	Warning             string  `json:"warning,omitempty"`
}

// BuildRecord assembles a Record from extracted fields. epoch is nil when the
// event time could not be normalized.
func BuildRecord(source string, index int, fields Fields, epoch *int64) (*Record, error) {
	reqParams, err := SerializeValue(fields.RequestParameters)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize requestParameters: %w", err)
	}

	addData, err := SerializeValue(fields.AdditionalEventData)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize additionalEventData: %w", err)
	}

	return &Record{
		Source:              source,
		Index:               index,
		Name:                fields.Name,
		Type:                fields.Type,
		EpochSeconds:        epoch,
		SourceIP:            fields.SourceIP,
		Region:              fields.Region,
		UserAgent:           fields.UserAgent,
		UserName:            fields.UserName,
		ARN:                 fields.ARN,
		AccountID:           fields.AccountID,
		RequestParameters:   reqParams,
		AdditionalEventData: addData,
	}, nil
}

// SerializeValue renders a decoded JSON value as compact JSON text with sorted
// object keys. Absent and null values render as the empty string.
func SerializeValue(v interface{}) (string, error) {
	if v == nil {
		return "", nil
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return "", err
	}

	// Encode appends a newline
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// StringValue dereferences an optional string, returning "" for nil
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
