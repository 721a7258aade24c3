package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastConfig = Config{
	MaxAttempts:    3,
	InitialBackoff: time.Millisecond,
	MaxBackoff:     2 * time.Millisecond,
	BackoffFactor:  2.0,
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), "read", fastConfig, func() error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoReturnsLastError(t *testing.T) {
	calls := 0
	err := Do(context.Background(), "read", fastConfig, func() error {
		calls++
		return fmt.Errorf("attempt %d", calls)
	})

	require.EqualError(t, err, "attempt 3")
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanentErrors(t *testing.T) {
	cause := errors.New("bad gzip header")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"marked permanent", Permanent(cause), cause},
		{"not exist", fmt.Errorf("read: %w", os.ErrNotExist), os.ErrNotExist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Do(context.Background(), "read", fastConfig, func() error {
				calls++
				return tt.err
			})

			assert.Equal(t, 1, calls)
			assert.True(t, errors.Is(err, tt.want))
		})
	}
}

func TestDoSingleAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), "read", Config{}, func() error {
		calls++
		return errors.New("timeout")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, "read", fastConfig, func() error {
		calls++
		return nil
	})

	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, calls)
}

func TestPermanentNil(t *testing.T) {
	assert.Nil(t, Permanent(nil))
	assert.False(t, IsPermanent(errors.New("x")))
}

func TestCalculateBackoff(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	config := Config{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		BackoffFactor:  2.0,
	}

	assert.Equal(t, 100*time.Millisecond, calculateBackoff(1, config, r))
	assert.Equal(t, 400*time.Millisecond, calculateBackoff(3, config, r))
	assert.Equal(t, time.Second, calculateBackoff(10, config, r))

	config.RandomizationFactor = 0.5
	for i := 0; i < 20; i++ {
		backoff := calculateBackoff(1, config, r)
		assert.GreaterOrEqual(t, int64(backoff), int64(50*time.Millisecond))
		assert.LessOrEqual(t, int64(backoff), int64(150*time.Millisecond))
	}
}
