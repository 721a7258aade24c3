package parsers

import (
	"time"

	"TrailZero/core"
)

const (
	// eventTimeLayout is the only eventTime form CloudTrail writes
	eventTimeLayout = "2006-01-02T15:04:05Z"

	// DefaultEventTime is substituted for events without an eventTime
	DefaultEventTime = "1970-01-01T00:00:00Z"
)

// NormalizeTimestamp converts a YYYY-MM-DDTHH:MM:SSZ string to whole seconds
// since the Unix epoch. Any other form fails with a *core.TimestampFormatError.
func NormalizeTimestamp(value string) (int64, error) {
	// time.Parse tolerates fractional seconds the layout does not mention,
	// so pin the width first
	if len(value) != len(eventTimeLayout) {
		return 0, &core.TimestampFormatError{Value: value}
	}

	parsed, err := time.Parse(eventTimeLayout, value)
	if err != nil {
		return 0, &core.TimestampFormatError{Value: value}
	}

	return parsed.Unix(), nil
}
