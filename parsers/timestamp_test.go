package parsers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrailZero/core"
)

func TestNormalizeTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int64
	}{
		{"Epoch default", DefaultEventTime, 0},
		{"ConsoleLogin", "2023-06-01T12:00:00Z", 1685620800},
		{"Leap day", "2024-02-29T23:59:59Z", 1709251199},
		{"Before epoch", "1969-12-31T23:59:59Z", -1},
		{"Far past", "1900-01-01T00:00:00Z", -2208988800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTimestamp(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			// deterministic
			again, err := NormalizeTimestamp(tt.value)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestNormalizeTimestampRejects(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"Empty", ""},
		{"Garbage", "yesterday"},
		{"Fractional seconds", "2023-06-01T12:00:00.000Z"},
		{"Numeric offset", "2023-06-01T12:00:00+00:00"},
		{"Missing zone", "2023-06-01T12:00:00"},
		{"Lower case zone", "2023-06-01T12:00:00z"},
		{"Space separator", "2023-06-01 12:00:00Z"},
		{"Single digit month", "2023-6-01T12:00:00Z"},
		{"Invalid day", "2023-02-30T12:00:00Z"},
		{"Invalid hour", "2023-06-01T24:00:00Z"},
		{"Date only", "2023-06-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeTimestamp(tt.value)
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrTimestampFormat))

			var tsErr *core.TimestampFormatError
			require.True(t, errors.As(err, &tsErr))
			assert.Equal(t, tt.value, tsErr.Value)
		})
	}
}
