package repository

import (
	"errors"
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/utils/dbctx"
	"familynotes/cmd/internal/utils/uid"

	"gorm.io/gorm"
)

type DefaultInvitationRepository struct {
	db *gorm.DB
}

func NewInvitationRepository(db *gorm.DB) *DefaultInvitationRepository {
	return &DefaultInvitationRepository{db: db}
}

func (i *DefaultInvitationRepository) FindByToken(dbc dbctx.Context, token string) (*entity.FamilyInvitation, error) {
	var inv entity.FamilyInvitation
	err := conn(i.db, dbc).Where("token = ?", token).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (i *DefaultInvitationRepository) Create(dbc dbctx.Context, inv *entity.FamilyInvitation) error {
	uid.Assign(&inv.ID)
	return conn(i.db, dbc).Create(inv).Error
}

// MarkAccepted consumes the invitation. It reports false when someone else
// consumed it first.
func (i *DefaultInvitationRepository) MarkAccepted(dbc dbctx.Context, inv *entity.FamilyInvitation, acceptedBy, now int64) (bool, error) {
	res := conn(i.db, dbc).
		Model(&entity.FamilyInvitation{}).
		Where("id = ? AND accepted_at IS NULL", inv.ID).
		Updates(map[string]any{
			"accepted_at": now,
			"accepted_by": acceptedBy,
		})

	if res.Error != nil {
		return false, res.Error
	}

	if res.RowsAffected == 0 {
		return false, nil
	}

	inv.AcceptedAt = &now
	inv.AcceptedBy = &acceptedBy
	return true, nil
}

// DeleteExpired drops unaccepted invitations that expired before 'before'.
// Accepted ones are kept as an audit trail of who joined through what.
func (i *DefaultInvitationRepository) DeleteExpired(dbc dbctx.Context, before int64) (int64, error) {
	res := conn(i.db, dbc).
		Where("accepted_at IS NULL AND expires_at < ?", before).
		Delete(&entity.FamilyInvitation{})
	return res.RowsAffected, res.Error
}
