package retry

import (
	"context"
	"errors"
	"io/fs"
	"math"
	"math/rand"
	"time"

	"TrailZero/internal/logger"
)

// DefaultConfig is used for content reads when nothing else is configured
var DefaultConfig = Config{
	MaxAttempts:         3,
	InitialBackoff:      200 * time.Millisecond,
	MaxBackoff:          5 * time.Second,
	BackoffFactor:       2.0,
	RandomizationFactor: 0.5,
}

// Config configures the retry behavior
type Config struct {
	// MaxAttempts is the maximum number of attempts including the first attempt
	MaxAttempts int

	// InitialBackoff is the wait after the first failed attempt
	InitialBackoff time.Duration

	// MaxBackoff caps the wait between attempts
	MaxBackoff time.Duration

	// BackoffFactor is the factor by which the backoff increases
	BackoffFactor float64

	// RandomizationFactor is the fraction of the backoff used as jitter
	RandomizationFactor float64
}

// permanentError marks an error that must not be retried
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so that Do gives up immediately
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err must not be retried. Missing files never
// appear on a second attempt, so not-exist errors count as permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	if errors.As(err, &p) {
		return true
	}
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Do runs fn until it succeeds, returns a permanent error, the attempts are
// used up or ctx is done. The error of the last attempt is returned unwrapped
// from any Permanent marker.
func Do(ctx context.Context, operation string, config Config, fn func() error) error {
	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return err
			}
			return ctxErr
		}

		err = fn()
		if err == nil {
			return nil
		}

		if IsPermanent(err) {
			return unwrapPermanent(err)
		}

		if attempt == attempts {
			if attempts > 1 {
				logger.Error("Failed %s after %d attempts: %v", operation, attempt, err)
			}
			return err
		}

		backoff := calculateBackoff(attempt, config, r)
		logger.Warn("Retrying %s (attempt %d/%d) after %v: %v",
			operation, attempt, attempts, backoff, err)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}

	return err
}

func unwrapPermanent(err error) error {
	var p *permanentError
	if errors.As(err, &p) && p == err {
		return p.err
	}
	return err
}

// calculateBackoff calculates the backoff duration for a given attempt
func calculateBackoff(attempt int, config Config, r *rand.Rand) time.Duration {
	backoff := float64(config.InitialBackoff) * math.Pow(config.BackoffFactor, float64(attempt-1))

	delta := config.RandomizationFactor * backoff
	low := backoff - delta
	high := backoff + delta
	backoff = low + (high-low)*r.Float64()

	if config.MaxBackoff > 0 && backoff > float64(config.MaxBackoff) {
		backoff = float64(config.MaxBackoff)
	}

	return time.Duration(backoff)
}
