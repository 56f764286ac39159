package scenario

import (
	"context"
	"errors"
	"time"
)

// pollUntil calls cond until it reports true, cond fails, or ctx is done.
// The condition is evaluated once immediately, then every interval.
func pollUntil(ctx context.Context, interval time.Duration, cond func(context.Context) (bool, error)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ok, err := cond(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// timedOut reports whether err comes from the bounded wait ctx rather than
// from the run's own context.
func timedOut(parent, wait context.Context, err error) bool {
	if err == nil || parent.Err() != nil {
		return false
	}
	return wait.Err() != nil || errors.Is(err, context.DeadlineExceeded)
}
