package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StartSweeper runs sweep every interval until ctx is cancelled. A
// non-positive interval disables it.
func StartSweeper(
	ctx context.Context,
	interval time.Duration,
	sweep func(context.Context),
	log *zap.Logger,
) {
	if interval <= 0 {
		log.Info("crm sweeper disabled")
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				sweep(ctx)
				log.Debug("crm sweep done", zap.Duration("took", time.Since(start)))
			}
		}
	}()
}
