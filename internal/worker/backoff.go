package worker

import (
	"math/rand/v2"
	"time"
)

// Backoff implements exponential backoff with jitter for transport-error
// retries.
type Backoff struct {
	minDelay time.Duration
	maxDelay time.Duration
	current  time.Duration
}

// NewBackoff creates a Backoff with the provided min and max delays.
func NewBackoff(minDelay, maxDelay time.Duration) *Backoff {
	if minDelay <= 0 {
		minDelay = 1 * time.Second
	}
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}
	return &Backoff{minDelay: minDelay, maxDelay: maxDelay, current: minDelay}
}

// Next returns the next delay with ±25% jitter and doubles the current delay
// up to the maximum.
func (b *Backoff) Next() time.Duration {
	jitter := (rand.Float64() - 0.5) * 0.5
	d := time.Duration(float64(b.current) * (1 + jitter))

	next := b.current * 2
	if next > b.maxDelay {
		next = b.maxDelay
	}
	b.current = next

	if d < 0 {
		d = 0
	}
	return d
}

// Reset sets the backoff to its minimum delay.
func (b *Backoff) Reset() {
	b.current = b.minDelay
}
