package contract

import "familynotes/cmd/internal/domain/entity"

type NotificationResponse struct {
	ID        int64                   `json:"id"`
	Type      entity.NotificationType `json:"type"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	CreatorID int64                   `json:"creator_id"`
	IsRead    bool                    `json:"is_read"`
	CreatedAt string                  `json:"created_at"`
}

type NotificationListResponse struct {
	UnreadCount   int64                   `json:"unread_count"`
	Notifications []*NotificationResponse `json:"notifications"`
}
