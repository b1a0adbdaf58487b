package service

import (
	"familynotes/cmd/internal/contract"
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/domain/events"
	"familynotes/cmd/internal/domain/policy"
	"familynotes/cmd/internal/utils"
	"familynotes/cmd/internal/utils/apierror"
	"familynotes/cmd/internal/utils/dbctx"
)

// familyCore holds what every family-scoped service needs: the stores, the
// guards and the notification fan-out.
type familyCore struct {
	Tx       TxRunner
	Repos    Repositories
	Policy   *policy.FamilyPolicy
	Notifier *Notifier
}

func newFamilyCore(tx TxRunner, repos Repositories, familyPolicy *policy.FamilyPolicy) *familyCore {
	return &familyCore{
		Tx:       tx,
		Repos:    repos,
		Policy:   familyPolicy,
		Notifier: NewNotifier(repos.Notifications),
	}
}

// resolveActor works out in which capacity 'user' acts on the creator's
// family. Outsiders are rejected.
func (f *familyCore) resolveActor(dbc dbctx.Context, user *entity.User, creatorID int64) (*policy.Actor, apierror.ErrorResponse) {
	if user.ID == creatorID {
		return &policy.Actor{User: user, CreatorID: creatorID}, nil
	}

	member, err := f.Repos.Family.FindByCreatorAndMember(dbc, creatorID, user.ID)
	if err != nil {
		return nil, internalError("fetch membership", err)
	}

	if member == nil || !member.IsActive {
		return nil, apierror.NewForbiddenError("You are not a member of this family")
	}
	return &policy.Actor{User: user, CreatorID: creatorID, Membership: member}, nil
}

// lockLifecycle locks the creator's lifecycle row for the rest of the
// transaction, creating it on first use.
func (f *familyCore) lockLifecycle(dbc dbctx.Context, creatorID int64) (*entity.NoteLifecycle, apierror.ErrorResponse) {
	lc, err := f.Repos.Lifecycles.LockOrCreate(dbc, creatorID)
	if err != nil {
		return nil, internalError("lock lifecycle", err)
	}
	return lc, nil
}

// readLifecycle never creates a row. A creator without one is active.
func (f *familyCore) readLifecycle(dbc dbctx.Context, creatorID int64) (*entity.NoteLifecycle, apierror.ErrorResponse) {
	lc, err := f.Repos.Lifecycles.FindByCreator(dbc, creatorID)
	if err != nil {
		return nil, internalError("fetch lifecycle", err)
	}

	if lc == nil {
		return entity.NewLifecycle(creatorID), nil
	}
	return lc, nil
}

// audience lists the user IDs of the creator and every active member,
// minus 'exclude'.
func (f *familyCore) audience(dbc dbctx.Context, creatorID int64, exclude ...int64) ([]int64, error) {
	members, err := f.Repos.Family.FindActiveByCreator(dbc, creatorID)
	if err != nil {
		return nil, err
	}

	skip := make(map[int64]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}

	out := make([]int64, 0, len(members)+1)
	if !skip[creatorID] {
		out = append(out, creatorID)
	}

	for _, m := range members {
		if !skip[m.MemberID] {
			out = append(out, m.MemberID)
		}
	}
	return out, nil
}

// notifyFamily sends 'event' to the whole family except 'exclude'.
func (f *familyCore) notifyFamily(dbc dbctx.Context, creatorID int64, event events.FamilyEvent, exclude ...int64) apierror.ErrorResponse {
	recipients, err := f.audience(dbc, creatorID, exclude...)
	if err != nil {
		return internalError("resolve notification audience", err)
	}

	if err = f.Notifier.Notify(dbc, creatorID, recipients, event); err != nil {
		return internalError("append notifications", err)
	}
	return nil
}

func (f *familyCore) notifyUsers(dbc dbctx.Context, creatorID int64, event events.FamilyEvent, userIDs ...int64) apierror.ErrorResponse {
	if err := f.Notifier.Notify(dbc, creatorID, userIDs, event); err != nil {
		return internalError("append notifications", err)
	}
	return nil
}

// displayName falls back to a neutral label for users that are gone.
func (f *familyCore) displayName(dbc dbctx.Context, userID int64) string {
	user, err := f.Repos.Users.FindByID(dbc, userID)
	if err != nil || user == nil || user.DisplayName == "" {
		return "a family member"
	}
	return user.DisplayName
}

// usersByID loads the users behind 'members' in one query.
func (f *familyCore) usersByID(dbc dbctx.Context, members []*entity.FamilyMember) (map[int64]*entity.User, error) {
	ids := make([]int64, len(members))
	for i, m := range members {
		ids[i] = m.MemberID
	}

	users, err := f.Repos.Users.FindAllInIDs(dbc, ids)
	if err != nil {
		return nil, err
	}

	out := make(map[int64]*entity.User, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func toLifecycleResponse(lc *entity.NoteLifecycle) *contract.LifecycleResponse {
	return &contract.LifecycleResponse{
		CreatorID:          lc.CreatorID,
		Status:             lc.Status,
		DeletionStatus:     lc.DeletionStatus,
		ContentEpisode:     lc.ContentEpisode,
		DeletionEpisode:    lc.DeletionEpisode,
		DeathReportedBy:    lc.DeathReportedBy,
		DeathReportedAt:    utils.FormatEpochPtr(lc.DeathReportedAt),
		OpenedAt:           utils.FormatEpochPtr(lc.OpenedAt),
		DeletionApprovedAt: utils.FormatEpochPtr(lc.DeletionApprovedAt),
		PurgedAt:           utils.FormatEpochPtr(lc.PurgedAt),
	}
}

func toFamilyMemberResponse(m *entity.FamilyMember, user *entity.User) *contract.FamilyMemberResponse {
	name := ""
	if user != nil {
		name = user.DisplayName
	}

	return &contract.FamilyMemberResponse{
		ID:                m.ID,
		CreatorID:         m.CreatorID,
		UserID:            m.MemberID,
		DisplayName:       name,
		Relationship:      m.Relationship,
		RelationshipLabel: m.RelationshipLabel,
		Role:              m.Role,
		IsActive:          m.IsActive,
		JoinedAt:          utils.FormatEpoch(m.JoinedAt),
	}
}
