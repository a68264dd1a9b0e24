// AngelaMos | 2026
// sweeper.go

package auth

import (
	"context"
	"log/slog"
	"time"
)

type purger interface {
	Purge(ctx context.Context) (int64, error)
}

// Sweeper removes expired sessions on a fixed interval. Validation rejects
// expired tokens on its own, so the sweep only reclaims storage.
type Sweeper struct {
	store    purger
	interval time.Duration
	logger   *slog.Logger
}

func NewSweeper(store *SessionStore, interval time.Duration, logger *slog.Logger) *Sweeper {
	return newSweeper(store, interval, logger)
}

func newSweeper(store purger, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Sweeper{
		store:    store,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (sw *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	sw.SweepOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sw.SweepOnce(ctx)
		}
	}
}

func (sw *Sweeper) SweepOnce(ctx context.Context) int64 {
	n, err := sw.store.Purge(ctx)
	if err != nil {
		if ctx.Err() == nil {
			sw.logger.WarnContext(ctx, "session sweep failed", "error", err)
		}
		return 0
	}

	if n > 0 {
		sw.logger.InfoContext(ctx, "expired sessions purged", "count", n)
	}

	return n
}
