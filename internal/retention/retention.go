// Package retention runs the periodic message-retention sweep: once at
// startup, then every six hours, tombstoning messages older than the
// configured retention window.
package retention

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ircgateway/internal/store"
)

const sweepInterval = 6 * time.Hour

// Run blocks, sweeping immediately and then on sweepInterval, until ctx is
// canceled. Intended to be launched in its own goroutine from the
// composition root.
func Run(ctx context.Context, sugar *zap.SugaredLogger, st *store.Store, retentionDays int) {
	sweep(sugar, st, retentionDays)

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep(sugar, st, retentionDays)
		}
	}
}

func sweep(sugar *zap.SugaredLogger, st *store.Store, retentionDays int) {
	n := st.RunRetentionCleanup(retentionDays)
	if n > 0 {
		sugar.Infow("retention: swept messages", "count", n, "retentionDays", retentionDays)
	}
}
