package downloader

import (
	"context"
	"time"
)

// Pacing is the range, in seconds, of the random delay inserted before
// every segment request.
type Pacing struct {
	Min float64
	Max float64
}

// Enabled reports whether any delay is configured.
func (p Pacing) Enabled() bool {
	return p.Min != 0 || p.Max != 0
}

// Sample draws a delay uniformly from [Min, Max], both ends included, at
// nanosecond resolution. rnd must return values in [0, n), as rand.Int64N
// does. It returns zero when pacing is disabled.
func (p Pacing) Sample(rnd func(n int64) int64) time.Duration {
	if !p.Enabled() {
		return 0
	}

	lo := time.Duration(p.Min * float64(time.Second))
	hi := time.Duration(p.Max * float64(time.Second))
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rnd(int64(hi-lo)+1))
}

// Sleep blocks for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
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
