package crawler

import (
	"context"
	"math/rand/v2"
	"time"
)

// Pacer spaces out outbound requests.
type Pacer interface {
	Wait(ctx context.Context) error
}

// RandomDelay sleeps for a uniformly random duration in [Min, Max].
type RandomDelay struct {
	Min time.Duration
	Max time.Duration
}

// DefaultDelay is the pause between requests, one to three seconds.
var DefaultDelay = RandomDelay{Min: time.Second, Max: 3 * time.Second}

// Next draws the next delay.
func (d RandomDelay) Next() time.Duration {
	lo := max(d.Min, 0)
	if d.Max <= lo {
		return lo
	}
	return lo + rand.N(d.Max-lo+1)
}

// Wait returns ctx.Err() if ctx is done before the delay elapses.
func (d RandomDelay) Wait(ctx context.Context) error {
	timer := time.NewTimer(d.Next())
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NoDelay does not wait.
type NoDelay struct{}

func (NoDelay) Wait(ctx context.Context) error {
	return ctx.Err()
}
