package repository

import (
	"errors"
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/utils/dbctx"
	"familynotes/cmd/internal/utils/uid"

	"gorm.io/gorm"
)

type DefaultNoteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *DefaultNoteRepository {
	return &DefaultNoteRepository{db: db}
}

func (n *DefaultNoteRepository) FindByID(dbc dbctx.Context, id int64) (*entity.Note, error) {
	var note entity.Note
	err := conn(n.db, dbc).First(&note, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (n *DefaultNoteRepository) FindByCreator(dbc dbctx.Context, creatorID int64) ([]*entity.Note, error) {
	var notes []*entity.Note
	err := conn(n.db, dbc).
		Where("creator_id = ?", creatorID).
		Order("created_at DESC, id DESC").
		Find(&notes).Error

	if err != nil {
		return nil, err
	}
	return notes, nil
}

// FindByCreatorInCategories returns nothing for an empty category list.
func (n *DefaultNoteRepository) FindByCreatorInCategories(dbc dbctx.Context, creatorID int64, categories []entity.Category) ([]*entity.Note, error) {
	if len(categories) == 0 {
		return []*entity.Note{}, nil
	}

	var notes []*entity.Note
	err := conn(n.db, dbc).
		Where("creator_id = ? AND category_id IN ?", creatorID, categories).
		Order("created_at DESC, id DESC").
		Find(&notes).Error

	if err != nil {
		return nil, err
	}
	return notes, nil
}

func (n *DefaultNoteRepository) Save(dbc dbctx.Context, note *entity.Note) error {
	uid.Assign(&note.ID)
	return conn(n.db, dbc).Save(note).Error
}

func (n *DefaultNoteRepository) Delete(dbc dbctx.Context, note *entity.Note) error {
	return conn(n.db, dbc).Delete(note).Error
}

func (n *DefaultNoteRepository) DeleteByCreator(dbc dbctx.Context, creatorID int64) (int64, error) {
	res := conn(n.db, dbc).
		Where("creator_id = ?", creatorID).
		Delete(&entity.Note{})
	return res.RowsAffected, res.Error
}
