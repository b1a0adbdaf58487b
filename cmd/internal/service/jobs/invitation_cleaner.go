package jobs

import (
	"context"
	"familynotes/cmd/internal/utils"
	"familynotes/cmd/internal/utils/dbctx"
	"time"

	"github.com/labstack/gommon/log"
)

const CleanInterval = 1 * time.Hour

type InvitationRepository interface {
	DeleteExpired(dbc dbctx.Context, before int64) (int64, error)
}

// InvitationCleaner drops unaccepted invitations once they have been expired
// for longer than the retention period. Expiry itself is checked at read time.
type InvitationCleaner struct {
	invitationRepo InvitationRepository
	retention      time.Duration
}

func NewInvitationCleaner(repo InvitationRepository, retention time.Duration) *InvitationCleaner {
	return &InvitationCleaner{invitationRepo: repo, retention: retention}
}

func (c *InvitationCleaner) Start(ctx context.Context) {
	ticker := time.NewTicker(CleanInterval)
	defer ticker.Stop()

	log.Info("Invitation cleaner cron started")

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping invitation cleaner...")
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *InvitationCleaner) cleanup(ctx context.Context) {
	cutoff := utils.NowUTC() - c.retention.Milliseconds()

	deleted, err := c.invitationRepo.DeleteExpired(dbctx.Background(ctx), cutoff)
	if err != nil {
		log.Errorf("Cleaner: failed to delete expired invitations: %v", err)
		return
	}

	log.Debugf("Cleaner: swept %d invitations expired before %d", deleted, cutoff)
}
