package session

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Purger is implemented by stores that need expired states removed
// explicitly. Redis expires keys on its own and does not implement it.
type Purger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// RunJanitor purges expired states from store every interval until ctx is
// done. It returns immediately when the store does not need purging.
func RunJanitor(ctx context.Context, store Store, interval time.Duration, logger *logrus.Logger) error {
	purger, ok := store.(Purger)
	if !ok || interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Session janitor stopped due to context cancellation")
			return nil
		case <-ticker.C:
			purged, err := purger.PurgeExpired(ctx)
			if err != nil {
				logger.WithError(err).Error("Failed to purge expired states")
				continue
			}
			if purged > 0 {
				logger.WithField("purged", purged).Debug("Purged expired states")
			}
		}
	}
}
