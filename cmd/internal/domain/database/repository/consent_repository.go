package repository

import (
	"errors"
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/utils/dbctx"
	"familynotes/cmd/internal/utils/uid"

	"gorm.io/gorm"
)

type DefaultConsentRepository struct {
	db *gorm.DB
}

func NewConsentRepository(db *gorm.DB) *DefaultConsentRepository {
	return &DefaultConsentRepository{db: db}
}

// FindEpisode lists every record of the current episode of 'kind'.
func (c *DefaultConsentRepository) FindEpisode(dbc dbctx.Context, lifecycleID int64, kind entity.ConsentKind) ([]*entity.ConsentRecord, error) {
	var records []*entity.ConsentRecord
	err := conn(c.db, dbc).
		Where("lifecycle_id = ? AND kind = ?", lifecycleID, kind).
		Order("created_at ASC, id ASC").
		Find(&records).Error

	if err != nil {
		return nil, err
	}
	return records, nil
}

func (c *DefaultConsentRepository) FindVoter(dbc dbctx.Context, lifecycleID int64, kind entity.ConsentKind, familyMemberID int64) (*entity.ConsentRecord, error) {
	var record entity.ConsentRecord
	err := conn(c.db, dbc).
		Where("lifecycle_id = ? AND kind = ? AND family_member_id = ?", lifecycleID, kind, familyMemberID).
		First(&record).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ReplaceEpisode drops the previous episode of 'kind' and stores 'records'
// as the new one.
func (c *DefaultConsentRepository) ReplaceEpisode(dbc dbctx.Context, lifecycleID int64, kind entity.ConsentKind, records []*entity.ConsentRecord) error {
	if err := c.DeleteEpisode(dbc, lifecycleID, kind); err != nil {
		return err
	}

	if len(records) == 0 {
		return nil
	}

	for _, r := range records {
		uid.Assign(&r.ID)
	}
	return conn(c.db, dbc).Create(&records).Error
}

func (c *DefaultConsentRepository) DeleteEpisode(dbc dbctx.Context, lifecycleID int64, kind entity.ConsentKind) error {
	return conn(c.db, dbc).
		Where("lifecycle_id = ? AND kind = ?", lifecycleID, kind).
		Delete(&entity.ConsentRecord{}).Error
}

// RecordVote stores the decision unless one is already there. It reports
// false when the voter had already responded.
func (c *DefaultConsentRepository) RecordVote(dbc dbctx.Context, record *entity.ConsentRecord, consented bool, now int64) (bool, error) {
	res := conn(c.db, dbc).
		Model(&entity.ConsentRecord{}).
		Where("id = ? AND consented IS NULL", record.ID).
		Updates(map[string]any{
			"consented":    consented,
			"responded_at": now,
		})

	if res.Error != nil {
		return false, res.Error
	}

	if res.RowsAffected == 0 {
		return false, nil
	}

	record.Consented = &consented
	record.RespondedAt = &now
	return true, nil
}
