package lwb

import (
	"context"
	"time"
)

// RunRounds invokes round every period() until ctx is done. A signal
// on reset restarts the current round with the new period.
func RunRounds(ctx context.Context, period func() time.Duration, reset <-chan struct{}, round func()) error {
	timer := time.NewTimer(period())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-reset:
			if !timer.Stop() {
				<-timer.C
			}
		case <-timer.C:
			round()
		}
		timer.Reset(period())
	}
}

// RoundDuration converts a period in seconds to a duration using unit
// as the length of one second. Zero values fall back to one second.
func RoundDuration(seconds uint16, unit time.Duration) time.Duration {
	if seconds == 0 {
		seconds = 1
	}
	if unit <= 0 {
		unit = time.Second
	}
	return time.Duration(seconds) * unit
}
