package repository

import (
	"errors"
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/utils/dbctx"
	"familynotes/cmd/internal/utils/uid"

	"gorm.io/gorm"
)

type DefaultFamilyRepository struct {
	db *gorm.DB
}

func NewFamilyRepository(db *gorm.DB) *DefaultFamilyRepository {
	return &DefaultFamilyRepository{db: db}
}

func (f *DefaultFamilyRepository) FindByID(dbc dbctx.Context, id int64) (*entity.FamilyMember, error) {
	var member entity.FamilyMember
	err := conn(f.db, dbc).First(&member, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (f *DefaultFamilyRepository) FindByCreatorAndMember(dbc dbctx.Context, creatorID, memberID int64) (*entity.FamilyMember, error) {
	var member entity.FamilyMember
	err := conn(f.db, dbc).
		Where("creator_id = ? AND member_id = ?", creatorID, memberID).
		First(&member).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &member, nil
}

// FindActiveByCreator lists the creator's active members, oldest first.
func (f *DefaultFamilyRepository) FindActiveByCreator(dbc dbctx.Context, creatorID int64) ([]*entity.FamilyMember, error) {
	var members []*entity.FamilyMember
	err := conn(f.db, dbc).
		Where("creator_id = ? AND is_active = ?", creatorID, true).
		Order("joined_at ASC, id ASC").
		Find(&members).Error

	if err != nil {
		return nil, err
	}
	return members, nil
}

// FindActiveByMember lists the families the user belongs to.
func (f *DefaultFamilyRepository) FindActiveByMember(dbc dbctx.Context, memberID int64) ([]*entity.FamilyMember, error) {
	var members []*entity.FamilyMember
	err := conn(f.db, dbc).
		Where("member_id = ? AND is_active = ?", memberID, true).
		Order("joined_at ASC, id ASC").
		Find(&members).Error

	if err != nil {
		return nil, err
	}
	return members, nil
}

func (f *DefaultFamilyRepository) CountActiveRepresentatives(dbc dbctx.Context, creatorID int64) (int, error) {
	var count int64
	err := conn(f.db, dbc).
		Model(&entity.FamilyMember{}).
		Where("creator_id = ? AND is_active = ? AND role = ?", creatorID, true, entity.RoleRepresentative).
		Count(&count).Error
	return int(count), err
}

func (f *DefaultFamilyRepository) CountActive(dbc dbctx.Context, creatorID int64) (int, error) {
	var count int64
	err := conn(f.db, dbc).
		Model(&entity.FamilyMember{}).
		Where("creator_id = ? AND is_active = ?", creatorID, true).
		Count(&count).Error
	return int(count), err
}

func (f *DefaultFamilyRepository) Save(dbc dbctx.Context, member *entity.FamilyMember) error {
	uid.Assign(&member.ID)
	return conn(f.db, dbc).Save(member).Error
}

// Delete hard-deletes the membership together with every row that hangs off
// it. Must run inside a transaction to stay all-or-nothing.
func (f *DefaultFamilyRepository) Delete(dbc dbctx.Context, member *entity.FamilyMember) error {
	tx := conn(f.db, dbc)

	if err := tx.Where("family_member_id = ?", member.ID).Delete(&entity.ConsentRecord{}).Error; err != nil {
		return err
	}

	if err := tx.Where("family_member_id = ?", member.ID).Delete(&entity.CategoryAccess{}).Error; err != nil {
		return err
	}

	if err := tx.Where("family_member_id = ?", member.ID).Delete(&entity.AccessPreset{}).Error; err != nil {
		return err
	}
	return tx.Delete(member).Error
}
