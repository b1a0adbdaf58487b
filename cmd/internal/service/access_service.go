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

	"github.com/labstack/gommon/log"
)

// DefaultAccessService maintains the per-category access matrix and the
// creator's recommended presets.
type DefaultAccessService struct {
	*familyCore
}

func NewAccessService(tx TxRunner, repos Repositories, familyPolicy *policy.FamilyPolicy) *DefaultAccessService {
	return &DefaultAccessService{familyCore: newFamilyCore(tx, repos, familyPolicy)}
}

func (a *DefaultAccessService) GrantCategoryAccess(ctx context.Context, user *entity.User, creatorID, memberID int64, category entity.Category) (*contract.MemberAccessResponse, apierror.ErrorResponse) {
	return a.changeAccess(ctx, user, creatorID, memberID, category, true)
}

func (a *DefaultAccessService) RevokeCategoryAccess(ctx context.Context, user *entity.User, creatorID, memberID int64, category entity.Category) (*contract.MemberAccessResponse, apierror.ErrorResponse) {
	return a.changeAccess(ctx, user, creatorID, memberID, category, false)
}

// changeAccess sets or unsets one grant. Both directions are idempotent and
// a no-op for representatives, whose access is implicit.
func (a *DefaultAccessService) changeAccess(ctx context.Context, user *entity.User, creatorID, memberID int64, category entity.Category, grant bool) (*contract.MemberAccessResponse, apierror.ErrorResponse) {
	if !category.Valid() {
		return nil, unknownCategoryError(category)
	}

	var resp *contract.MemberAccessResponse
	apierr := runTx(ctx, a.Tx, func(dbc dbctx.Context) apierror.ErrorResponse {
		if _, apierr := a.lockLifecycle(dbc, creatorID); apierr != nil {
			return apierr
		}

		actor, apierr := a.resolveActor(dbc, user, creatorID)
		if apierr != nil {
			return apierr
		}

		if apierr = a.Policy.Require(actor, entity.CapManageAccess, "Only the creator or a representative can manage access"); apierr != nil {
			return apierr
		}

		target, apierr := a.familyMember(dbc, creatorID, memberID)
		if apierr != nil {
			return apierr
		}

		if !target.IsRepresentative() {
			var (
				changed bool
				err     error
				event   events.FamilyEvent
			)

			if grant {
				changed, err = a.Repos.Access.Grant(dbc, &entity.CategoryAccess{
					CreatorID:      creatorID,
					FamilyMemberID: target.ID,
					CategoryID:     category,
					GrantedBy:      user.ID,
					CreatedAt:      utils.NowUTC(),
				})
				event = &events.AccessGranted{Category: category}
			} else {
				changed, err = a.Repos.Access.Revoke(dbc, target.ID, category)
				event = &events.AccessRevoked{Category: category}
			}

			if err != nil {
				return internalError("change category access", err)
			}

			if changed {
				if apierr = a.notifyUsers(dbc, creatorID, event, target.MemberID); apierr != nil {
					return apierr
				}
			}
		}

		var err error
		resp, err = a.memberAccess(dbc, target)
		if err != nil {
			return internalError("fetch member access", err)
		}
		return nil
	})
	return resp, apierr
}

func (a *DefaultAccessService) GetAccessMatrix(ctx context.Context, user *entity.User, creatorID int64) (*contract.AccessMatrixResponse, apierror.ErrorResponse) {
	dbc := dbctx.Background(ctx)
	if _, apierr := a.resolveActor(dbc, user, creatorID); apierr != nil {
		return nil, apierr
	}

	members, err := a.Repos.Family.FindActiveByCreator(dbc, creatorID)
	if err != nil {
		return nil, internalError("fetch family members", err)
	}

	grants, err := a.Repos.Access.FindByCreator(dbc, creatorID)
	if err != nil {
		return nil, internalError("fetch grants", err)
	}

	users, err := a.usersByID(dbc, members)
	if err != nil {
		return nil, internalError("fetch users", err)
	}

	byMember := make(map[int64][]entity.Category, len(members))
	for _, g := range grants {
		byMember[g.FamilyMemberID] = append(byMember[g.FamilyMemberID], g.CategoryID)
	}

	resp := &contract.AccessMatrixResponse{
		CreatorID:  creatorID,
		Categories: entity.AllCategories(),
		Members:    make([]*contract.MemberAccessResponse, len(members)),
	}

	for i, m := range members {
		resp.Members[i] = toMemberAccessResponse(m, users[m.MemberID], byMember[m.ID])
	}
	return resp, nil
}

// ReadableCategories lists every category the member may read, in display
// order.
func (a *DefaultAccessService) ReadableCategories(dbc dbctx.Context, member *entity.FamilyMember) ([]entity.Category, error) {
	grants, err := a.Repos.Access.FindByMember(dbc, member.ID)
	if err != nil {
		return nil, err
	}

	granted := make(map[entity.Category]bool, len(grants))
	for _, g := range grants {
		granted[g.CategoryID] = true
	}

	out := make([]entity.Category, 0, len(granted))
	for _, category := range entity.AllCategories() {
		if policy.CanReadCategory(member, granted[category]) {
			out = append(out, category)
		}
	}
	return out, nil
}

// ListAccessPresets is open to the creator and the representatives who will
// apply them.
func (a *DefaultAccessService) ListAccessPresets(ctx context.Context, user *entity.User, creatorID int64) ([]*contract.PresetResponse, apierror.ErrorResponse) {
	dbc := dbctx.Background(ctx)
	actor, apierr := a.resolveActor(dbc, user, creatorID)
	if apierr != nil {
		return nil, apierr
	}

	if !actor.IsCreator() && !actor.IsRepresentative() {
		return nil, apierror.NewForbiddenError("Only the creator or a representative can see presets")
	}

	presets, err := a.Repos.Access.FindPresetsByCreator(dbc, creatorID)
	if err != nil {
		return nil, internalError("fetch presets", err)
	}

	resp := make([]*contract.PresetResponse, len(presets))
	for i, p := range presets {
		resp[i] = &contract.PresetResponse{
			MemberID:  p.FamilyMemberID,
			Category:  p.CategoryID,
			CreatedAt: utils.FormatEpoch(p.CreatedAt),
		}
	}
	return resp, nil
}

func (a *DefaultAccessService) SetAccessPreset(ctx context.Context, user *entity.User, creatorID, memberID int64, category entity.Category) apierror.ErrorResponse {
	return a.changePreset(ctx, user, creatorID, memberID, category, true)
}

func (a *DefaultAccessService) RemoveAccessPreset(ctx context.Context, user *entity.User, creatorID, memberID int64, category entity.Category) apierror.ErrorResponse {
	return a.changePreset(ctx, user, creatorID, memberID, category, false)
}

func (a *DefaultAccessService) changePreset(ctx context.Context, user *entity.User, creatorID, memberID int64, category entity.Category, set bool) apierror.ErrorResponse {
	if !category.Valid() {
		return unknownCategoryError(category)
	}

	return runTx(ctx, a.Tx, func(dbc dbctx.Context) apierror.ErrorResponse {
		lc, apierr := a.lockLifecycle(dbc, creatorID)
		if apierr != nil {
			return apierr
		}

		actor, apierr := a.resolveActor(dbc, user, creatorID)
		if apierr != nil {
			return apierr
		}

		if apierr = a.Policy.Require(actor, entity.CapEditPresets, "Only the creator can edit presets"); apierr != nil {
			return apierr
		}

		if apierr = a.Policy.CanEditPresets(lc); apierr != nil {
			return apierr
		}

		target, apierr := a.familyMember(dbc, creatorID, memberID)
		if apierr != nil {
			return apierr
		}

		var err error
		if set {
			_, err = a.Repos.Access.SetPreset(dbc, &entity.AccessPreset{
				CreatorID:      creatorID,
				FamilyMemberID: target.ID,
				CategoryID:     category,
				CreatedAt:      utils.NowUTC(),
			})
		} else {
			_, err = a.Repos.Access.RemovePreset(dbc, target.ID, category)
		}

		if err != nil {
			return internalError("change preset", err)
		}
		return nil
	})
}

// ApplyRecommendedPresets grants every preset pair on its own. A failing pair
// is reported and does not undo the others.
func (a *DefaultAccessService) ApplyRecommendedPresets(ctx context.Context, user *entity.User, creatorID int64) (*contract.ApplyPresetsResponse, apierror.ErrorResponse) {
	dbc := dbctx.Background(ctx)
	actor, apierr := a.resolveActor(dbc, user, creatorID)
	if apierr != nil {
		return nil, apierr
	}

	if apierr = a.Policy.Require(actor, entity.CapApplyPresets, "Only representatives can apply presets"); apierr != nil {
		return nil, apierr
	}

	presets, err := a.Repos.Access.FindPresetsByCreator(dbc, creatorID)
	if err != nil {
		return nil, internalError("fetch presets", err)
	}

	resp := &contract.ApplyPresetsResponse{Results: make([]*contract.PresetApplication, 0, len(presets))}
	granted := make(map[int64][]entity.Category)

	for _, p := range presets {
		result := contract.PresetFailed
		var target *entity.FamilyMember

		err = a.Tx.InTx(ctx, func(dbc dbctx.Context) error {
			member, err := a.Repos.Family.FindByID(dbc, p.FamilyMemberID)
			if err != nil {
				return err
			}

			switch {
			case member == nil || !member.IsActive || member.CreatorID != creatorID:
				result = contract.PresetMemberMissing
				return nil
			case member.IsRepresentative():
				result = contract.PresetAlreadyGranted
				return nil
			}

			created, err := a.Repos.Access.Grant(dbc, &entity.CategoryAccess{
				CreatorID:      creatorID,
				FamilyMemberID: member.ID,
				CategoryID:     p.CategoryID,
				GrantedBy:      user.ID,
				CreatedAt:      utils.NowUTC(),
			})
			if err != nil {
				return err
			}

			result = contract.PresetAlreadyGranted
			if created {
				result = contract.PresetGranted
				target = member
			}
			return nil
		})

		if err != nil {
			log.Errorf("failed to apply preset %d (member %d, %s): %v", p.ID, p.FamilyMemberID, p.CategoryID, err)
			result = contract.PresetFailed
			target = nil
		}

		if target != nil {
			resp.Granted++
			granted[target.MemberID] = append(granted[target.MemberID], p.CategoryID)
		}

		resp.Results = append(resp.Results, &contract.PresetApplication{
			MemberID: p.FamilyMemberID,
			Category: p.CategoryID,
			Result:   result,
		})
	}

	if len(granted) > 0 {
		apierr = runTx(ctx, a.Tx, func(dbc dbctx.Context) apierror.ErrorResponse {
			for userID, categories := range granted {
				if apierr := a.notifyUsers(dbc, creatorID, &events.PresetsApplied{Categories: categories}, userID); apierr != nil {
					return apierr
				}
			}
			return nil
		})
		if apierr != nil {
			log.Warnf("presets applied for creator %d but notifications failed", creatorID)
		}
	}
	return resp, nil
}

// familyMember loads a member row that must belong to the creator.
func (a *DefaultAccessService) familyMember(dbc dbctx.Context, creatorID, memberID int64) (*entity.FamilyMember, apierror.ErrorResponse) {
	member, err := a.Repos.Family.FindByID(dbc, memberID)
	if err != nil {
		return nil, internalError("fetch family member", err)
	}

	if member == nil || !member.IsActive || member.CreatorID != creatorID {
		return nil, apierror.NotFoundError
	}
	return member, nil
}

func (a *DefaultAccessService) memberAccess(dbc dbctx.Context, member *entity.FamilyMember) (*contract.MemberAccessResponse, error) {
	user, err := a.Repos.Users.FindByID(dbc, member.MemberID)
	if err != nil {
		return nil, err
	}

	grants, err := a.Repos.Access.FindByMember(dbc, member.ID)
	if err != nil {
		return nil, err
	}

	categories := make([]entity.Category, len(grants))
	for i, g := range grants {
		categories[i] = g.CategoryID
	}
	return toMemberAccessResponse(member, user, categories), nil
}

func toMemberAccessResponse(m *entity.FamilyMember, user *entity.User, granted []entity.Category) *contract.MemberAccessResponse {
	resp := &contract.MemberAccessResponse{
		MemberID:   m.ID,
		UserID:     m.MemberID,
		Role:       m.Role,
		Categories: granted,
	}

	if user != nil {
		resp.DisplayName = user.DisplayName
	}

	if m.IsRepresentative() {
		resp.Implicit = true
		resp.Categories = entity.AllCategories()
	}

	if resp.Categories == nil {
		resp.Categories = []entity.Category{}
	}
	return resp
}

func unknownCategoryError(category entity.Category) *apierror.APIError {
	return apierror.NewSimple(http.StatusBadRequest, apierror.KindValidation, "Unknown category '%s'", category)
}
