package jobs

import (
	"context"
	"time"

	"github.com/labstack/gommon/log"
)

// PurgeGrace is how long an approved deletion may wait for its inline purge
// before the recovery job takes over.
const PurgeGrace = 2 * time.Minute

type DeletionRecoverer interface {
	RecoverApproved(ctx context.Context, grace time.Duration) (int, error)
}

// PurgeRecovery finishes deletion episodes whose purge never ran, usually
// because the process stopped between approval and purge.
type PurgeRecovery struct {
	deletions DeletionRecoverer
	interval  time.Duration
	grace     time.Duration
}

func NewPurgeRecovery(deletions DeletionRecoverer, interval time.Duration) *PurgeRecovery {
	return &PurgeRecovery{
		deletions: deletions,
		interval:  interval,
		grace:     PurgeGrace,
	}
}

func (p *PurgeRecovery) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	log.Info("Purge recovery cron started")

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping purge recovery...")
			return
		case <-ticker.C:
			p.recover(ctx)
		}
	}
}

func (p *PurgeRecovery) recover(ctx context.Context) {
	purged, err := p.deletions.RecoverApproved(ctx, p.grace)
	if err != nil {
		log.Errorf("Recovery: failed to look up approved deletions: %v", err)
		return
	}

	if purged > 0 {
		log.Infof("Recovery: purged %d creators left in approved state", purged)
	}
}
