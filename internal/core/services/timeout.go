package services

import (
	"context"
	"time"
)

// withTimeout bounds a port call. A zero timeout keeps the parent deadline.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
