package sources

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/creastat/logmerge/core"
)

// DelayFunc returns how long the next pull should take
type DelayFunc func() time.Duration

// FixedDelay waits d before every pull
func FixedDelay(d time.Duration) DelayFunc {
	return func() time.Duration { return d }
}

// RandomDelay waits a uniformly random duration in [0, limit) before every pull.
// The returned func is not safe for concurrent use.
func RandomDelay(limit time.Duration, rng *rand.Rand) DelayFunc {
	return func() time.Duration {
		if limit <= 0 {
			return 0
		}
		return time.Duration(rng.Int64N(int64(limit)))
	}
}

// DelayedSource turns a core.Source into a core.AsyncSource whose pulls take
// time, the way a remote or disk-backed log would.
type DelayedSource struct {
	inner core.Source
	delay DelayFunc
}

// NewDelayedSource wraps inner so every PopAsync first waits delay()
func NewDelayedSource(inner core.Source, delay DelayFunc) *DelayedSource {
	return &DelayedSource{
		inner: inner,
		delay: delay,
	}
}

// PopAsync waits for the configured delay, then pops the wrapped source
func (s *DelayedSource) PopAsync(ctx context.Context) (core.Record, error) {
	if s.inner.Drained() {
		return nil, nil
	}

	if d := s.delay(); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	return s.inner.Pop()
}
