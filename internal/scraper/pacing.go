package scraper

import (
	"context"
	"math/rand"
	"time"
)

// Pacer waits a random duration in [Min, Max] between scroll passes.
// A zero Pacer never waits.
type Pacer struct {
	Min time.Duration
	Max time.Duration
}

func (p Pacer) next() time.Duration {
	if p.Max <= p.Min {
		return p.Min
	}
	return p.Min + time.Duration(rand.Int63n(int64(p.Max-p.Min)+1))
}

// Pause blocks for the next interval or until ctx is done
func (p Pacer) Pause(ctx context.Context) error {
	d := p.next()
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
