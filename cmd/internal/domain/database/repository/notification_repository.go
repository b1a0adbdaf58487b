package repository

import (
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/utils/dbctx"
	"familynotes/cmd/internal/utils/uid"

	"gorm.io/gorm"
)

type DefaultNotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *DefaultNotificationRepository {
	return &DefaultNotificationRepository{db: db}
}

func (n *DefaultNotificationRepository) CreateBatch(dbc dbctx.Context, notifs []*entity.Notification) error {
	if len(notifs) == 0 {
		return nil
	}

	for _, notif := range notifs {
		uid.Assign(&notif.ID)
	}
	return conn(n.db, dbc).Create(&notifs).Error
}

// FindByUser returns the user's inbox, newest first.
func (n *DefaultNotificationRepository) FindByUser(dbc dbctx.Context, userID int64, unreadOnly bool, limit int) ([]*entity.Notification, error) {
	query := conn(n.db, dbc).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}

	var notifs []*entity.Notification
	err := query.Order("created_at DESC, id DESC").Find(&notifs).Error
	if err != nil {
		return nil, err
	}
	return notifs, nil
}

func (n *DefaultNotificationRepository) FindByCreator(dbc dbctx.Context, creatorID int64) ([]*entity.Notification, error) {
	var notifs []*entity.Notification
	err := conn(n.db, dbc).
		Where("related_creator_id = ?", creatorID).
		Order("created_at ASC, id ASC").
		Find(&notifs).Error

	if err != nil {
		return nil, err
	}
	return notifs, nil
}

// MarkRead reports false when the notification does not belong to the user.
func (n *DefaultNotificationRepository) MarkRead(dbc dbctx.Context, id, userID int64) (bool, error) {
	var count int64
	err := conn(n.db, dbc).
		Model(&entity.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Count(&count).Error

	if err != nil || count == 0 {
		return false, err
	}

	err = conn(n.db, dbc).
		Model(&entity.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true).Error
	return err == nil, err
}

func (n *DefaultNotificationRepository) MarkAllRead(dbc dbctx.Context, userID int64) (int64, error) {
	res := conn(n.db, dbc).
		Model(&entity.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (n *DefaultNotificationRepository) CountUnread(dbc dbctx.Context, userID int64) (int64, error) {
	var count int64
	err := conn(n.db, dbc).
		Model(&entity.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}
