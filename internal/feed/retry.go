package feed

import (
	"context"
	"time"
)

// maxBackoff caps the delay between retry attempts so a cycle degrades
// quickly instead of stalling on a dead feed.
const maxBackoff = 5 * time.Second

func nextBackoff(current, limit time.Duration) time.Duration {
	next := current * 2
	if next > limit {
		return limit
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
