package service

import (
	"context"
	"familynotes/cmd/internal/contract"
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/domain/events"
	"familynotes/cmd/internal/domain/policy"
	"familynotes/cmd/internal/utils"
	"familynotes/cmd/internal/utils/apierror"
	"familynotes/cmd/internal/utils/dbctx"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type DefaultFamilyService struct {
	*familyCore
	Validate      *validator.Validate
	InvitationTTL time.Duration
}

func NewFamilyService(tx TxRunner, repos Repositories, familyPolicy *policy.FamilyPolicy, validate *validator.Validate, invitationTTL time.Duration) *DefaultFamilyService {
	if invitationTTL <= 0 {
		invitationTTL = entity.DefaultInvitationTTL
	}

	return &DefaultFamilyService{
		familyCore:    newFamilyCore(tx, repos, familyPolicy),
		Validate:      validate,
		InvitationTTL: invitationTTL,
	}
}

func (f *DefaultFamilyService) InviteFamilyMember(ctx context.Context, user *entity.User, creatorID int64, req *contract.InviteRequest) (*contract.InvitationResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := f.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	var resp *contract.InvitationResponse
	apierr := runTx(ctx, f.Tx, func(dbc dbctx.Context) apierror.ErrorResponse {
		if _, apierr := f.lockLifecycle(dbc, creatorID); apierr != nil {
			return apierr
		}

		actor, apierr := f.resolveActor(dbc, user, creatorID)
		if apierr != nil {
			return apierr
		}

		if apierr = f.Policy.Require(actor, entity.CapManageMembers, "Only the creator or a representative can invite"); apierr != nil {
			return apierr
		}

		role := entity.Role(req.Role)
		if role == entity.RoleRepresentative {
			reps, err := f.Repos.Family.CountActiveRepresentatives(dbc, creatorID)
			if err != nil {
				return internalError("count representatives", err)
			}

			if apierr = f.Policy.CanPromote(reps); apierr != nil {
				return apierr
			}
		}

		now := utils.NowUTC()
		inv := &entity.FamilyInvitation{
			CreatorID:         creatorID,
			InvitedBy:         user.ID,
			Token:             uuid.NewString(),
			Relationship:      req.Relationship,
			RelationshipLabel: req.RelationshipLabel,
			Role:              role,
			ExpiresAt:         now + f.InvitationTTL.Milliseconds(),
			CreatedAt:         now,
		}

		if err := f.Repos.Invitations.Create(dbc, inv); err != nil {
			return internalError("create invitation", err)
		}

		resp = toInvitationResponse(inv, f.displayName(dbc, creatorID), now)
		return nil
	})
	return resp, apierr
}

func (f *DefaultFamilyService) GetInvitation(ctx context.Context, token string) (*contract.InvitationResponse, apierror.ErrorResponse) {
	dbc := dbctx.Background(ctx)
	inv, err := f.Repos.Invitations.FindByToken(dbc, token)
	if err != nil {
		return nil, internalError("fetch invitation", err)
	}

	if inv == nil {
		return nil, apierror.NotFoundError
	}
	return toInvitationResponse(inv, f.displayName(dbc, inv.CreatorID), utils.NowUTC()), nil
}

// AcceptInvitation consumes the token and creates the membership. The
// representative cap is checked again, invites may have been issued while
// there was still room.
func (f *DefaultFamilyService) AcceptInvitation(ctx context.Context, user *entity.User, token string) (*contract.FamilyMemberResponse, apierror.ErrorResponse) {
	var resp *contract.FamilyMemberResponse
	apierr := runTx(ctx, f.Tx, func(dbc dbctx.Context) apierror.ErrorResponse {
		inv, err := f.Repos.Invitations.FindByToken(dbc, token)
		if err != nil {
			return internalError("fetch invitation", err)
		}

		if inv == nil {
			return apierror.NotFoundError
		}

		if _, apierr := f.lockLifecycle(dbc, inv.CreatorID); apierr != nil {
			return apierr
		}

		if inv.CreatorID == user.ID {
			return apierror.SelfInviteError
		}

		now := utils.NowUTC()
		if inv.IsAccepted() {
			return apierror.InvitationAlreadyAcceptedError
		}

		if inv.IsExpired(now) {
			return apierror.InvitationExpiredError
		}

		existing, err := f.Repos.Family.FindByCreatorAndMember(dbc, inv.CreatorID, user.ID)
		if err != nil {
			return internalError("fetch membership", err)
		}

		if existing != nil && existing.IsActive {
			return apierror.DuplicateMembershipError
		}

		if inv.Role == entity.RoleRepresentative {
			reps, err := f.Repos.Family.CountActiveRepresentatives(dbc, inv.CreatorID)
			if err != nil {
				return internalError("count representatives", err)
			}

			if apierr := f.Policy.CanPromote(reps); apierr != nil {
				return apierr
			}
		}

		ok, err := f.Repos.Invitations.MarkAccepted(dbc, inv, user.ID, now)
		if err != nil {
			return internalError("accept invitation", err)
		}

		if !ok {
			return apierror.InvitationAlreadyAcceptedError
		}

		member := existing
		if member == nil {
			member = &entity.FamilyMember{CreatorID: inv.CreatorID, MemberID: user.ID}
		}
		member.Relationship = inv.Relationship
		member.RelationshipLabel = inv.RelationshipLabel
		member.Role = inv.Role
		member.IsActive = true
		member.JoinedAt = now
		member.UpdatedAt = now

		if err = f.Repos.Family.Save(dbc, member); err != nil {
			return internalError("save membership", err)
		}

		event := &events.MemberJoined{Name: user.DisplayName, Relationship: member.Relationship}
		if apierr := f.notifyFamily(dbc, inv.CreatorID, event, user.ID); apierr != nil {
			return apierr
		}

		resp = toFamilyMemberResponse(member, user)
		return nil
	})
	return resp, apierr
}

func (f *DefaultFamilyService) ListFamilyMembers(ctx context.Context, user *entity.User, creatorID int64) (*contract.FamilyResponse, apierror.ErrorResponse) {
	dbc := dbctx.Background(ctx)
	if _, apierr := f.resolveActor(dbc, user, creatorID); apierr != nil {
		return nil, apierr
	}

	members, err := f.Repos.Family.FindActiveByCreator(dbc, creatorID)
	if err != nil {
		return nil, internalError("fetch family members", err)
	}

	users, err := f.usersByID(dbc, members)
	if err != nil {
		return nil, internalError("fetch users", err)
	}

	resp := &contract.FamilyResponse{
		CreatorID:          creatorID,
		MaxRepresentatives: f.Policy.MaxRepresentatives,
		Members:            make([]*contract.FamilyMemberResponse, len(members)),
	}

	for i, m := range members {
		if m.IsRepresentative() {
			resp.RepresentativeCount++
		}
		resp.Members[i] = toFamilyMemberResponse(m, users[m.MemberID])
	}
	return resp, nil
}

// ListMemberships lists every family the caller belongs to.
func (f *DefaultFamilyService) ListMemberships(ctx context.Context, user *entity.User) ([]*contract.MembershipResponse, apierror.ErrorResponse) {
	dbc := dbctx.Background(ctx)
	memberships, err := f.Repos.Family.FindActiveByMember(dbc, user.ID)
	if err != nil {
		return nil, internalError("fetch memberships", err)
	}

	resp := make([]*contract.MembershipResponse, len(memberships))
	for i, m := range memberships {
		lc, apierr := f.readLifecycle(dbc, m.CreatorID)
		if apierr != nil {
			return nil, apierr
		}

		resp[i] = &contract.MembershipResponse{
			FamilyMemberResponse: toFamilyMemberResponse(m, user),
			CreatorName:          f.displayName(dbc, m.CreatorID),
			LifecycleStatus:      lc.Status,
			DeletionStatus:       lc.DeletionStatus,
		}
	}
	return resp, nil
}

func (f *DefaultFamilyService) UpdateFamilyMember(ctx context.Context, user *entity.User, memberID int64, req *contract.UpdateMemberRequest) (*contract.FamilyMemberResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := f.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	var resp *contract.FamilyMemberResponse
	apierr := runTx(ctx, f.Tx, func(dbc dbctx.Context) apierror.ErrorResponse {
		target, apierr := f.findMember(dbc, memberID)
		if apierr != nil {
			return apierr
		}

		lc, apierr := f.lockLifecycle(dbc, target.CreatorID)
		if apierr != nil {
			return apierr
		}

		actor, apierr := f.resolveActor(dbc, user, target.CreatorID)
		if apierr != nil {
			return apierr
		}

		if apierr = f.Policy.Require(actor, entity.CapManageMembers, "Only the creator or a representative can update members"); apierr != nil {
			return apierr
		}

		reps, err := f.Repos.Family.CountActiveRepresentatives(dbc, target.CreatorID)
		if err != nil {
			return internalError("count representatives", err)
		}

		updater := &memberUpdater{lc: lc, target: target, policy: f.Policy, reps: reps}
		updater.setString(req.Relationship, &target.Relationship)
		updater.setString(req.RelationshipLabel, &target.RelationshipLabel)
		updater.setRole(req.Role)

		if updater.err != nil {
			return updater.err
		}

		if updater.dirty {
			target.UpdatedAt = utils.NowUTC()
			if err = f.Repos.Family.Save(dbc, target); err != nil {
				return internalError("update family member", err)
			}
		}

		targetUser, err := f.Repos.Users.FindByID(dbc, target.MemberID)
		if err != nil {
			return internalError("fetch user", err)
		}

		if updater.roleChanged {
			// Representatives read everything, explicit grants would only go stale.
			if target.Role == entity.RoleRepresentative {
				if err = f.Repos.Access.DeleteByMember(dbc, target.ID); err != nil {
					return internalError("clear grants", err)
				}
			}

			event := &events.RoleChanged{Name: f.displayName(dbc, target.MemberID), Role: target.Role}
			if apierr = f.notifyFamily(dbc, target.CreatorID, event, user.ID); apierr != nil {
				return apierr
			}
		}

		resp = toFamilyMemberResponse(target, targetUser)
		return nil
	})
	return resp, apierr
}

func (f *DefaultFamilyService) RemoveFamilyMember(ctx context.Context, user *entity.User, memberID int64) apierror.ErrorResponse {
	return runTx(ctx, f.Tx, func(dbc dbctx.Context) apierror.ErrorResponse {
		target, apierr := f.findMember(dbc, memberID)
		if apierr != nil {
			return apierr
		}

		lc, apierr := f.lockLifecycle(dbc, target.CreatorID)
		if apierr != nil {
			return apierr
		}

		actor, apierr := f.resolveActor(dbc, user, target.CreatorID)
		if apierr != nil {
			return apierr
		}

		if apierr = f.Policy.Require(actor, entity.CapManageMembers, "Only the creator or a representative can remove members"); apierr != nil {
			return apierr
		}

		if target.MemberID == user.ID {
			return apierror.NewSimple(http.StatusBadRequest, apierror.KindBadRequest, "Use leave to exit a family")
		}

		members, err := f.Repos.Family.CountActive(dbc, target.CreatorID)
		if err != nil {
			return internalError("count members", err)
		}

		if apierr = f.Policy.CanRemove(lc, members); apierr != nil {
			return apierr
		}

		name := f.displayName(dbc, target.MemberID)
		if err := f.Repos.Family.Delete(dbc, target); err != nil {
			return internalError("remove family member", err)
		}

		event := &events.MemberRemoved{Name: name, RemovedBy: user.DisplayName}
		if apierr = f.notifyFamily(dbc, target.CreatorID, event, user.ID); apierr != nil {
			return apierr
		}
		return f.notifyUsers(dbc, target.CreatorID, event, target.MemberID)
	})
}

func (f *DefaultFamilyService) LeaveFamily(ctx context.Context, user *entity.User, creatorID int64) apierror.ErrorResponse {
	return runTx(ctx, f.Tx, func(dbc dbctx.Context) apierror.ErrorResponse {
		lc, apierr := f.lockLifecycle(dbc, creatorID)
		if apierr != nil {
			return apierr
		}

		member, err := f.Repos.Family.FindByCreatorAndMember(dbc, creatorID, user.ID)
		if err != nil {
			return internalError("fetch membership", err)
		}

		if member == nil || !member.IsActive {
			return apierror.NotFoundError
		}

		reps, err := f.Repos.Family.CountActiveRepresentatives(dbc, creatorID)
		if err != nil {
			return internalError("count representatives", err)
		}

		members, err := f.Repos.Family.CountActive(dbc, creatorID)
		if err != nil {
			return internalError("count members", err)
		}

		if apierr = f.Policy.CanLeave(lc, member, reps, members); apierr != nil {
			return apierr
		}

		if err = f.Repos.Family.Delete(dbc, member); err != nil {
			return internalError("leave family", err)
		}
		return f.notifyFamily(dbc, creatorID, &events.MemberLeft{Name: user.DisplayName}, user.ID)
	})
}

func (f *DefaultFamilyService) findMember(dbc dbctx.Context, id int64) (*entity.FamilyMember, apierror.ErrorResponse) {
	member, err := f.Repos.Family.FindByID(dbc, id)
	if err != nil {
		return nil, internalError("fetch family member", err)
	}

	if member == nil || !member.IsActive {
		return nil, apierror.NotFoundError
	}
	return member, nil
}

func toInvitationResponse(inv *entity.FamilyInvitation, creatorName string, now int64) *contract.InvitationResponse {
	return &contract.InvitationResponse{
		Token:             inv.Token,
		CreatorID:         inv.CreatorID,
		CreatorName:       creatorName,
		InvitedBy:         inv.InvitedBy,
		Relationship:      inv.Relationship,
		RelationshipLabel: inv.RelationshipLabel,
		Role:              inv.Role,
		ExpiresAt:         utils.FormatEpoch(inv.ExpiresAt),
		Accepted:          inv.IsAccepted(),
		Expired:           inv.IsExpired(now),
	}
}
