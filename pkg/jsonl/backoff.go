package jsonl

import "time"

// Backoff computes retry delays for transient fetch failures. Delays grow
// exponentially from InitialDelay and are capped at MaxDelay; the whole retry
// episode is bounded by MaxRetryTime of wall-clock time rather than an
// attempt count.
//
// Backoff is a pure value: both methods are deterministic functions of their
// arguments, so tests can drive them with a fake clock.
type Backoff struct {
	// InitialDelay is the delay before the first retry.
	// Default: 1s
	InitialDelay time.Duration

	// MaxDelay caps the delay between consecutive retries.
	// Default: 30s
	MaxDelay time.Duration

	// MaxRetryTime bounds the total wall-clock time of one retry episode.
	// Default: 1h
	MaxRetryTime time.Duration
}

// DefaultBackoff returns the default retry schedule.
func DefaultBackoff() Backoff {
	return Backoff{
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		MaxRetryTime: time.Hour,
	}
}

// Delay returns the delay before retry number attempt (0-based). The result
// is InitialDelay * 2^attempt, capped at MaxDelay.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// Shifting left would overflow or exceed the cap exactly when
	// InitialDelay > MaxDelay >> attempt.
	if attempt > 62 || b.InitialDelay > b.MaxDelay>>uint(attempt) {
		return b.MaxDelay
	}
	return b.InitialDelay << uint(attempt)
}

// Exhausted reports whether a retry episode that began at startedAt has used
// up the MaxRetryTime budget as of now.
func (b Backoff) Exhausted(startedAt, now time.Time) bool {
	return now.Sub(startedAt) >= b.MaxRetryTime
}

// episode tracks one run of consecutive transient failures. It is created on
// the first failure and discarded after any successful progress, so the
// budget never leaks across unrelated failures.
type episode struct {
	attempt   int
	startedAt time.Time
}
