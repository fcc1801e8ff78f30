// Package clock abstracts wall time behind an interface so retry delays and
// polling cadences can run on virtual time in tests instead of sleeping real
// seconds.
package clock

import (
	"context"
	"time"
)

// Clock provides the current time and a cancellable sleep. All waiting in the
// trading core goes through a Clock; nothing calls time.Sleep directly.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the
	// latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

// System returns the real wall clock.
func System() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
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
