package repository

import (
	"errors"
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/utils"
	"familynotes/cmd/internal/utils/dbctx"
	"familynotes/cmd/internal/utils/uid"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultLifecycleRepository struct {
	db *gorm.DB
}

func NewLifecycleRepository(db *gorm.DB) *DefaultLifecycleRepository {
	return &DefaultLifecycleRepository{db: db}
}

func (l *DefaultLifecycleRepository) FindByCreator(dbc dbctx.Context, creatorID int64) (*entity.NoteLifecycle, error) {
	var lc entity.NoteLifecycle
	err := conn(l.db, dbc).Where("creator_id = ?", creatorID).First(&lc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &lc, nil
}

// LockByCreator reads the lifecycle row with FOR UPDATE, serializing every
// command of that creator until the transaction ends. SQLite has no row
// locks; its single connection already serializes writers.
func (l *DefaultLifecycleRepository) LockByCreator(dbc dbctx.Context, creatorID int64) (*entity.NoteLifecycle, error) {
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByCreator requires dbc.Tx")
	}

	q := conn(l.db, dbc)
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var lc entity.NoteLifecycle
	err := q.Where("creator_id = ?", creatorID).Take(&lc).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &lc, nil
}

// LockOrCreate locks the creator's lifecycle row, creating it first when the
// creator has none yet.
func (l *DefaultLifecycleRepository) LockOrCreate(dbc dbctx.Context, creatorID int64) (*entity.NoteLifecycle, error) {
	lc, err := l.LockByCreator(dbc, creatorID)
	if err != nil || lc != nil {
		return lc, err
	}

	now := utils.NowUTC()
	fresh := entity.NewLifecycle(creatorID)
	fresh.ID = uid.Generate()
	fresh.CreatedAt = now
	fresh.UpdatedAt = now

	err = conn(l.db, dbc).Clauses(clause.OnConflict{DoNothing: true}).Create(fresh).Error
	if err != nil {
		return nil, err
	}
	return l.LockByCreator(dbc, creatorID)
}

// CompareAndSetStatus moves the content status from 'from' to 'to' and
// applies 'updates' in the same statement. It reports false when the row was
// no longer in 'from'.
func (l *DefaultLifecycleRepository) CompareAndSetStatus(dbc dbctx.Context, lc *entity.NoteLifecycle, from, to entity.LifecycleStatus, updates map[string]any) (bool, error) {
	if !from.CanTransitionTo(to) {
		return false, fmt.Errorf("illegal lifecycle transition %s -> %s", from, to)
	}

	fields := withUpdatedAt(updates)
	fields["status"] = to

	res := conn(l.db, dbc).
		Model(&entity.NoteLifecycle{}).
		Where("id = ? AND status = ?", lc.ID, from).
		Updates(fields)

	if res.Error != nil {
		return false, res.Error
	}

	if res.RowsAffected != 1 {
		return false, nil
	}
	return true, l.reload(dbc, lc)
}

// CompareAndSetDeletion is CompareAndSetStatus for the deletion workflow.
func (l *DefaultLifecycleRepository) CompareAndSetDeletion(dbc dbctx.Context, lc *entity.NoteLifecycle, from, to entity.DeletionStatus, updates map[string]any) (bool, error) {
	if !from.CanTransitionTo(to) {
		return false, fmt.Errorf("illegal deletion transition %s -> %s", from, to)
	}

	fields := withUpdatedAt(updates)
	fields["deletion_status"] = to

	res := conn(l.db, dbc).
		Model(&entity.NoteLifecycle{}).
		Where("id = ? AND deletion_status = ?", lc.ID, from).
		Updates(fields)

	if res.Error != nil {
		return false, res.Error
	}

	if res.RowsAffected != 1 {
		return false, nil
	}
	return true, l.reload(dbc, lc)
}

// FindByDeletionStatus lists lifecycles parked in 'status' since before 'before'.
func (l *DefaultLifecycleRepository) FindByDeletionStatus(dbc dbctx.Context, status entity.DeletionStatus, before int64) ([]*entity.NoteLifecycle, error) {
	var out []*entity.NoteLifecycle
	err := conn(l.db, dbc).
		Where("deletion_status = ? AND updated_at < ?", status, before).
		Order("updated_at ASC").
		Find(&out).Error

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (l *DefaultLifecycleRepository) reload(dbc dbctx.Context, lc *entity.NoteLifecycle) error {
	return conn(l.db, dbc).First(lc, lc.ID).Error
}

func withUpdatedAt(updates map[string]any) map[string]any {
	fields := make(map[string]any, len(updates)+2)
	for k, v := range updates {
		fields[k] = v
	}
	fields["updated_at"] = utils.NowUTC()
	return fields
}
