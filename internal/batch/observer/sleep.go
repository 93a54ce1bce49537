package observer

import (
	"context"
	"time"

	"github.com/zoobzio/clockz"

	"github.com/wakala/be2bill/internal/batch"
)

// Sleep pauses after every line to throttle the gateway load of a batch.
type Sleep struct {
	d     time.Duration
	clock clockz.Clock
}

// NewSleep waits d per line. A nil clock means the real one.
func NewSleep(d time.Duration, clock clockz.Clock) *Sleep {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Sleep{d: d, clock: clock}
}

func (s *Sleep) Update(ctx context.Context, _ batch.Notification) error {
	if s.d <= 0 {
		return nil
	}
	select {
	case <-s.clock.After(s.d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
