package repository

import (
	"errors"
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/utils"
	"familynotes/cmd/internal/utils/dbctx"
	"familynotes/cmd/internal/utils/uid"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *DefaultUserRepository {
	return &DefaultUserRepository{db: db}
}

func (u *DefaultUserRepository) FindAllInIDs(dbc dbctx.Context, ids []int64) ([]*entity.User, error) {
	if len(ids) == 0 {
		return []*entity.User{}, nil
	}

	var users []*entity.User
	err := conn(u.db, dbc).Where("id IN ?", ids).Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (u *DefaultUserRepository) FindByID(dbc dbctx.Context, id int64) (*entity.User, error) {
	var user entity.User
	err := conn(u.db, dbc).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *DefaultUserRepository) FindActiveBySub(dbc dbctx.Context, sub string) (*entity.User, error) {
	var user entity.User
	err := conn(u.db, dbc).Where("sub_uuid = ? AND active = ?", sub, true).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindOrCreateBySub returns the user mirrored for 'sub', creating it on the
// first request the identity provider vouches for.
func (u *DefaultUserRepository) FindOrCreateBySub(dbc dbctx.Context, sub, name string) (*entity.User, error) {
	var user entity.User
	err := conn(u.db, dbc).Where("sub_uuid = ?", sub).First(&user).Error
	if err == nil {
		return &user, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := utils.NowUTC()
	user = entity.User{
		ID:          uid.Generate(),
		SubUUID:     sub,
		DisplayName: name,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Two first requests may race, the loser reads the winner's row.
	err = conn(u.db, dbc).Clauses(clause.OnConflict{DoNothing: true}).Create(&user).Error
	if err != nil {
		return nil, err
	}

	var stored entity.User
	if err = conn(u.db, dbc).Where("sub_uuid = ?", sub).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (u *DefaultUserRepository) Save(dbc dbctx.Context, user *entity.User) error {
	uid.Assign(&user.ID)
	return conn(u.db, dbc).Save(user).Error
}
