package service

import (
	"context"
	"familynotes/cmd/internal/contract"
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/utils"
	"familynotes/cmd/internal/utils/apierror"
	"familynotes/cmd/internal/utils/dbctx"
)

const MaxNotificationPage = 100

type DefaultNotificationService struct {
	NotificationRepo NotificationRepository
}

func NewNotificationService(repo NotificationRepository) *DefaultNotificationService {
	return &DefaultNotificationService{NotificationRepo: repo}
}

func (n *DefaultNotificationService) ListNotifications(ctx context.Context, user *entity.User, unreadOnly bool, limit int) (*contract.NotificationListResponse, apierror.ErrorResponse) {
	if limit <= 0 || limit > MaxNotificationPage {
		limit = MaxNotificationPage
	}

	dbc := dbctx.Background(ctx)
	notifs, err := n.NotificationRepo.FindByUser(dbc, user.ID, unreadOnly, limit)
	if err != nil {
		return nil, internalError("fetch notifications", err)
	}

	unread, err := n.NotificationRepo.CountUnread(dbc, user.ID)
	if err != nil {
		return nil, internalError("count unread notifications", err)
	}

	resp := &contract.NotificationListResponse{
		UnreadCount:   unread,
		Notifications: make([]*contract.NotificationResponse, len(notifs)),
	}

	for i, notif := range notifs {
		resp.Notifications[i] = &contract.NotificationResponse{
			ID:        notif.ID,
			Type:      notif.Type,
			Title:     notif.Title,
			Message:   notif.Message,
			CreatorID: notif.RelatedCreatorID,
			IsRead:    notif.IsRead,
			CreatedAt: utils.FormatEpoch(notif.CreatedAt),
		}
	}
	return resp, nil
}

// MarkNotificationRead hides other users' notifications behind a NotFound.
func (n *DefaultNotificationService) MarkNotificationRead(ctx context.Context, user *entity.User, id int64) apierror.ErrorResponse {
	ok, err := n.NotificationRepo.MarkRead(dbctx.Background(ctx), id, user.ID)
	if err != nil {
		return internalError("mark notification read", err)
	}

	if !ok {
		return apierror.NotFoundError
	}
	return nil
}

func (n *DefaultNotificationService) MarkAllNotificationsRead(ctx context.Context, user *entity.User) (int64, apierror.ErrorResponse) {
	count, err := n.NotificationRepo.MarkAllRead(dbctx.Background(ctx), user.ID)
	if err != nil {
		return 0, internalError("mark notifications read", err)
	}
	return count, nil
}
