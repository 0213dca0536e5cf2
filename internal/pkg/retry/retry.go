// Package retry holds the backoff wait shared by the optimistic retry loops.
package retry

import (
	"context"
	"time"
)

// Sleep waits for d or until ctx is done. A non-positive d only reports the
// context's state.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
