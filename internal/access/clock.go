package access

import (
	"context"
	"time"
)

// Clock supplies time and the simulated network delay. Sleep must return
// early with ctx.Err() when ctx is done.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Latency is the simulated round trip of each operation.
type Latency struct {
	Fetch  time.Duration
	Create time.Duration
	Login  time.Duration
	Remove time.Duration
}

func DefaultLatency() Latency {
	return Latency{
		Fetch:  1000 * time.Millisecond,
		Create: 1500 * time.Millisecond,
		Login:  800 * time.Millisecond,
		Remove: 500 * time.Millisecond,
	}
}
