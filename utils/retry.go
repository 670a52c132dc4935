package utils

import (
	"fmt"
	"time"
)

// RetryConfig retries an operation with doubling delays between attempts.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Logger      *Logger
}

// Do runs fn until it succeeds or the attempt budget runs out. The delay
// doubles after each failed attempt.
func (r *RetryConfig) Do(name string, fn func() error) error {
	delay := r.BaseDelay

	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if attempt >= r.MaxAttempts {
			return fmt.Errorf("%s: giving up after %d attempts: %w", name, r.MaxAttempts, err)
		}

		r.Logger.Warn("[retry] %s attempt %d/%d failed: %v (next try in %v)",
			name, attempt, r.MaxAttempts, err, delay)
		time.Sleep(delay)
		delay *= 2
	}
}
