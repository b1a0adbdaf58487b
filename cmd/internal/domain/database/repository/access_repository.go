package repository

import (
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/utils/dbctx"
	"familynotes/cmd/internal/utils/uid"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultAccessRepository struct {
	db *gorm.DB
}

func NewAccessRepository(db *gorm.DB) *DefaultAccessRepository {
	return &DefaultAccessRepository{db: db}
}

// Grant inserts the grant, doing nothing if it already exists. It reports
// whether a new row was written.
func (a *DefaultAccessRepository) Grant(dbc dbctx.Context, grant *entity.CategoryAccess) (bool, error) {
	uid.Assign(&grant.ID)
	res := conn(a.db, dbc).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(grant)
	return res.RowsAffected > 0, res.Error
}

// Revoke reports whether a grant was actually removed.
func (a *DefaultAccessRepository) Revoke(dbc dbctx.Context, familyMemberID int64, category entity.Category) (bool, error) {
	res := conn(a.db, dbc).
		Where("family_member_id = ? AND category_id = ?", familyMemberID, category).
		Delete(&entity.CategoryAccess{})
	return res.RowsAffected > 0, res.Error
}

func (a *DefaultAccessRepository) Exists(dbc dbctx.Context, familyMemberID int64, category entity.Category) (bool, error) {
	var count int64
	err := conn(a.db, dbc).
		Model(&entity.CategoryAccess{}).
		Where("family_member_id = ? AND category_id = ?", familyMemberID, category).
		Count(&count).Error
	return count > 0, err
}

func (a *DefaultAccessRepository) FindByCreator(dbc dbctx.Context, creatorID int64) ([]*entity.CategoryAccess, error) {
	var grants []*entity.CategoryAccess
	err := conn(a.db, dbc).
		Where("creator_id = ?", creatorID).
		Order("family_member_id ASC, category_id ASC").
		Find(&grants).Error

	if err != nil {
		return nil, err
	}
	return grants, nil
}

func (a *DefaultAccessRepository) FindByMember(dbc dbctx.Context, familyMemberID int64) ([]*entity.CategoryAccess, error) {
	var grants []*entity.CategoryAccess
	err := conn(a.db, dbc).
		Where("family_member_id = ?", familyMemberID).
		Order("category_id ASC").
		Find(&grants).Error

	if err != nil {
		return nil, err
	}
	return grants, nil
}

// DeleteByMember clears explicit grants, used when a member is promoted and
// their access becomes implicit.
func (a *DefaultAccessRepository) DeleteByMember(dbc dbctx.Context, familyMemberID int64) error {
	return conn(a.db, dbc).
		Where("family_member_id = ?", familyMemberID).
		Delete(&entity.CategoryAccess{}).Error
}

// SetPreset reports whether a new preset row was written.
func (a *DefaultAccessRepository) SetPreset(dbc dbctx.Context, preset *entity.AccessPreset) (bool, error) {
	uid.Assign(&preset.ID)
	res := conn(a.db, dbc).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(preset)
	return res.RowsAffected > 0, res.Error
}

func (a *DefaultAccessRepository) RemovePreset(dbc dbctx.Context, familyMemberID int64, category entity.Category) (bool, error) {
	res := conn(a.db, dbc).
		Where("family_member_id = ? AND category_id = ?", familyMemberID, category).
		Delete(&entity.AccessPreset{})
	return res.RowsAffected > 0, res.Error
}

func (a *DefaultAccessRepository) FindPresetsByCreator(dbc dbctx.Context, creatorID int64) ([]*entity.AccessPreset, error) {
	var presets []*entity.AccessPreset
	err := conn(a.db, dbc).
		Where("creator_id = ?", creatorID).
		Order("family_member_id ASC, category_id ASC").
		Find(&presets).Error

	if err != nil {
		return nil, err
	}
	return presets, nil
}
