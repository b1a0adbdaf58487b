package service

import (
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/domain/events"
	"familynotes/cmd/internal/utils"
	"familynotes/cmd/internal/utils/dbctx"
)

// Notifier appends inbox notifications. It writes through the caller's
// transaction, so a rolled back change never leaves a notification behind.
type Notifier struct {
	Repo NotificationRepository
}

func NewNotifier(repo NotificationRepository) *Notifier {
	return &Notifier{Repo: repo}
}

// Notify sends 'event' to every recipient once.
func (n *Notifier) Notify(dbc dbctx.Context, creatorID int64, recipients []int64, event events.FamilyEvent) error {
	if len(recipients) == 0 {
		return nil
	}

	title, message := event.Render()
	now := utils.NowUTC()
	seen := make(map[int64]bool, len(recipients))
	notifs := make([]*entity.Notification, 0, len(recipients))

	for _, userID := range recipients {
		if seen[userID] {
			continue
		}
		seen[userID] = true

		notifs = append(notifs, &entity.Notification{
			UserID:           userID,
			Type:             event.GetType(),
			Title:            title,
			Message:          message,
			RelatedCreatorID: creatorID,
			IsRead:           false,
			CreatedAt:        now,
		})
	}
	return n.Repo.CreateBatch(dbc, notifs)
}
