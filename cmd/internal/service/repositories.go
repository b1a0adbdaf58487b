package service

import (
	"context"
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/utils/dbctx"
)

type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type UserRepository interface {
	FindAllInIDs(dbc dbctx.Context, ids []int64) ([]*entity.User, error)
	FindByID(dbc dbctx.Context, id int64) (*entity.User, error)
	FindOrCreateBySub(dbc dbctx.Context, sub, name string) (*entity.User, error)
	Save(dbc dbctx.Context, user *entity.User) error
}

type FamilyRepository interface {
	FindByID(dbc dbctx.Context, id int64) (*entity.FamilyMember, error)
	FindByCreatorAndMember(dbc dbctx.Context, creatorID, memberID int64) (*entity.FamilyMember, error)
	FindActiveByCreator(dbc dbctx.Context, creatorID int64) ([]*entity.FamilyMember, error)
	FindActiveByMember(dbc dbctx.Context, memberID int64) ([]*entity.FamilyMember, error)
	CountActiveRepresentatives(dbc dbctx.Context, creatorID int64) (int, error)
	CountActive(dbc dbctx.Context, creatorID int64) (int, error)
	Save(dbc dbctx.Context, member *entity.FamilyMember) error
	Delete(dbc dbctx.Context, member *entity.FamilyMember) error
}

type InvitationRepository interface {
	FindByToken(dbc dbctx.Context, token string) (*entity.FamilyInvitation, error)
	Create(dbc dbctx.Context, inv *entity.FamilyInvitation) error
	MarkAccepted(dbc dbctx.Context, inv *entity.FamilyInvitation, acceptedBy, now int64) (bool, error)
	DeleteExpired(dbc dbctx.Context, before int64) (int64, error)
}

type LifecycleRepository interface {
	FindByCreator(dbc dbctx.Context, creatorID int64) (*entity.NoteLifecycle, error)
	LockByCreator(dbc dbctx.Context, creatorID int64) (*entity.NoteLifecycle, error)
	LockOrCreate(dbc dbctx.Context, creatorID int64) (*entity.NoteLifecycle, error)
	CompareAndSetStatus(dbc dbctx.Context, lc *entity.NoteLifecycle, from, to entity.LifecycleStatus, updates map[string]any) (bool, error)
	CompareAndSetDeletion(dbc dbctx.Context, lc *entity.NoteLifecycle, from, to entity.DeletionStatus, updates map[string]any) (bool, error)
	FindByDeletionStatus(dbc dbctx.Context, status entity.DeletionStatus, before int64) ([]*entity.NoteLifecycle, error)
}

type ConsentRepository interface {
	FindEpisode(dbc dbctx.Context, lifecycleID int64, kind entity.ConsentKind) ([]*entity.ConsentRecord, error)
	FindVoter(dbc dbctx.Context, lifecycleID int64, kind entity.ConsentKind, familyMemberID int64) (*entity.ConsentRecord, error)
	ReplaceEpisode(dbc dbctx.Context, lifecycleID int64, kind entity.ConsentKind, records []*entity.ConsentRecord) error
	DeleteEpisode(dbc dbctx.Context, lifecycleID int64, kind entity.ConsentKind) error
	RecordVote(dbc dbctx.Context, record *entity.ConsentRecord, consented bool, now int64) (bool, error)
}

type AccessRepository interface {
	Grant(dbc dbctx.Context, grant *entity.CategoryAccess) (bool, error)
	Revoke(dbc dbctx.Context, familyMemberID int64, category entity.Category) (bool, error)
	Exists(dbc dbctx.Context, familyMemberID int64, category entity.Category) (bool, error)
	FindByCreator(dbc dbctx.Context, creatorID int64) ([]*entity.CategoryAccess, error)
	FindByMember(dbc dbctx.Context, familyMemberID int64) ([]*entity.CategoryAccess, error)
	DeleteByMember(dbc dbctx.Context, familyMemberID int64) error
	SetPreset(dbc dbctx.Context, preset *entity.AccessPreset) (bool, error)
	RemovePreset(dbc dbctx.Context, familyMemberID int64, category entity.Category) (bool, error)
	FindPresetsByCreator(dbc dbctx.Context, creatorID int64) ([]*entity.AccessPreset, error)
}

type NotificationRepository interface {
	CreateBatch(dbc dbctx.Context, notifs []*entity.Notification) error
	FindByUser(dbc dbctx.Context, userID int64, unreadOnly bool, limit int) ([]*entity.Notification, error)
	MarkRead(dbc dbctx.Context, id, userID int64) (bool, error)
	MarkAllRead(dbc dbctx.Context, userID int64) (int64, error)
	CountUnread(dbc dbctx.Context, userID int64) (int64, error)
}

type NoteRepository interface {
	FindByID(dbc dbctx.Context, id int64) (*entity.Note, error)
	FindByCreator(dbc dbctx.Context, creatorID int64) ([]*entity.Note, error)
	FindByCreatorInCategories(dbc dbctx.Context, creatorID int64, categories []entity.Category) ([]*entity.Note, error)
	Save(dbc dbctx.Context, note *entity.Note) error
	Delete(dbc dbctx.Context, note *entity.Note) error
	DeleteByCreator(dbc dbctx.Context, creatorID int64) (int64, error)
}

// Repositories groups the stores the family services share.
type Repositories struct {
	Users         UserRepository
	Family        FamilyRepository
	Invitations   InvitationRepository
	Lifecycles    LifecycleRepository
	Consents      ConsentRepository
	Access        AccessRepository
	Notifications NotificationRepository
	Notes         NoteRepository
}
