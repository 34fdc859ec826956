package svcwrap

import (
	"context"
	"time"
)

// Condition is evaluated by Poll. Returning an error stops polling immediately.
type Condition func(ctx context.Context) (bool, error)

// Poll evaluates cond immediately and then every interval until it reports
// true. It returns ErrTimeout once timeout has elapsed (zero means no limit)
// and ctx.Err() if ctx is cancelled first.
func Poll(ctx context.Context, interval, timeout time.Duration, cond Condition) error {
	pollCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	for {
		done, err := cond(pollCtx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		select {
		case <-pollCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return ErrTimeout
		case <-time.After(interval):
		}
	}
}
