package service

import (
	"context"
	"familynotes/cmd/internal/contract"
	"familynotes/cmd/internal/domain/consent"
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/domain/events"
	"familynotes/cmd/internal/domain/policy"
	"familynotes/cmd/internal/utils"
	"familynotes/cmd/internal/utils/apierror"
	"familynotes/cmd/internal/utils/dbctx"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// DefaultLifecycleService drives the content side of the lifecycle: death
// reports and the consent episode that opens the notes.
type DefaultLifecycleService struct {
	*familyCore
	Validate *validator.Validate
}

func NewLifecycleService(tx TxRunner, repos Repositories, familyPolicy *policy.FamilyPolicy, validate *validator.Validate) *DefaultLifecycleService {
	return &DefaultLifecycleService{
		familyCore: newFamilyCore(tx, repos, familyPolicy),
		Validate:   validate,
	}
}

func (l *DefaultLifecycleService) GetLifecycle(ctx context.Context, actor *entity.User, creatorID int64) (*contract.LifecycleResponse, apierror.ErrorResponse) {
	dbc := dbctx.Background(ctx)
	if _, apierr := l.resolveActor(dbc, actor, creatorID); apierr != nil {
		return nil, apierr
	}

	lc, apierr := l.readLifecycle(dbc, creatorID)
	if apierr != nil {
		return nil, apierr
	}
	return toLifecycleResponse(lc), nil
}

func (l *DefaultLifecycleService) ReportDeath(ctx context.Context, user *entity.User, creatorID int64) (*contract.LifecycleResponse, apierror.ErrorResponse) {
	var resp *contract.LifecycleResponse
	apierr := runTx(ctx, l.Tx, func(dbc dbctx.Context) apierror.ErrorResponse {
		lc, apierr := l.lockLifecycle(dbc, creatorID)
		if apierr != nil {
			return apierr
		}

		actor, apierr := l.resolveActor(dbc, user, creatorID)
		if apierr != nil {
			return apierr
		}

		if apierr = l.Policy.Require(actor, entity.CapReportDeath, "Only representatives can report a death"); apierr != nil {
			return apierr
		}

		if lc.Status != entity.LifecycleActive {
			return apierror.NewLifecycleConflictError(lc, "A death can only be reported while the lifecycle is active")
		}

		ok, err := l.Repos.Lifecycles.CompareAndSetStatus(dbc, lc, entity.LifecycleActive, entity.LifecycleDeathReported, map[string]any{
			"death_reported_by": user.ID,
			"death_reported_at": utils.NowUTC(),
		})
		if err != nil {
			return internalError("report death", err)
		}

		if !ok {
			return apierror.NewLifecycleConflictError(lc, "The lifecycle changed, please refresh")
		}

		event := &events.DeathReported{
			CreatorName:  l.displayName(dbc, creatorID),
			ReporterName: user.DisplayName,
		}
		if apierr = l.notifyFamily(dbc, creatorID, event, user.ID); apierr != nil {
			return apierr
		}

		resp = toLifecycleResponse(lc)
		return nil
	})
	return resp, apierr
}

func (l *DefaultLifecycleService) CancelDeathReport(ctx context.Context, user *entity.User, creatorID int64) (*contract.LifecycleResponse, apierror.ErrorResponse) {
	var resp *contract.LifecycleResponse
	apierr := runTx(ctx, l.Tx, func(dbc dbctx.Context) apierror.ErrorResponse {
		lc, apierr := l.lockLifecycle(dbc, creatorID)
		if apierr != nil {
			return apierr
		}

		actor, apierr := l.resolveActor(dbc, user, creatorID)
		if apierr != nil {
			return apierr
		}

		if apierr = l.Policy.Require(actor, entity.CapReportDeath, "Only representatives can cancel a death report"); apierr != nil {
			return apierr
		}

		if lc.Status != entity.LifecycleDeathReported {
			return apierror.NewLifecycleConflictError(lc, "There is no pending death report to cancel")
		}

		ok, err := l.Repos.Lifecycles.CompareAndSetStatus(dbc, lc, entity.LifecycleDeathReported, entity.LifecycleActive, map[string]any{
			"death_reported_by": nil,
			"death_reported_at": nil,
		})
		if err != nil {
			return internalError("cancel death report", err)
		}

		if !ok {
			return apierror.NewLifecycleConflictError(lc, "The lifecycle changed, please refresh")
		}

		if err = l.Repos.Consents.DeleteEpisode(dbc, lc.ID, entity.ConsentContent); err != nil {
			return internalError("clear content consent", err)
		}

		event := &events.DeathReportCancelled{
			CreatorName: l.displayName(dbc, creatorID),
			CancelledBy: user.DisplayName,
		}
		if apierr = l.notifyFamily(dbc, creatorID, event, user.ID); apierr != nil {
			return apierr
		}

		resp = toLifecycleResponse(lc)
		return nil
	})
	return resp, apierr
}

// InitiateConsent starts a fresh content episode. The initiator's own vote
// is recorded as consent, so a family of one opens right away.
func (l *DefaultLifecycleService) InitiateConsent(ctx context.Context, user *entity.User, creatorID int64) (*contract.ConsentStatusResponse, apierror.ErrorResponse) {
	var resp *contract.ConsentStatusResponse
	apierr := runTx(ctx, l.Tx, func(dbc dbctx.Context) apierror.ErrorResponse {
		lc, apierr := l.lockLifecycle(dbc, creatorID)
		if apierr != nil {
			return apierr
		}

		actor, apierr := l.resolveActor(dbc, user, creatorID)
		if apierr != nil {
			return apierr
		}

		if apierr = l.Policy.Require(actor, entity.CapManageConsent, "Only representatives can request consent"); apierr != nil {
			return apierr
		}

		if lc.Status != entity.LifecycleDeathReported {
			return apierror.NewLifecycleConflictError(lc, "Consent can only be requested after a death report")
		}

		if lc.ContentPurged() {
			return apierror.NewBlockedByLifecycleError(lc, "The notes were deleted")
		}

		members, err := l.Repos.Family.FindActiveByCreator(dbc, creatorID)
		if err != nil {
			return internalError("fetch family members", err)
		}

		episode := lc.ContentEpisode + 1
		records := consent.Seed(lc.ID, entity.ConsentContent, episode, members, actor.MemberID(), utils.NowUTC())
		if err = l.Repos.Consents.ReplaceEpisode(dbc, lc.ID, entity.ConsentContent, records); err != nil {
			return internalError("seed content consent", err)
		}

		ok, err := l.Repos.Lifecycles.CompareAndSetStatus(dbc, lc, entity.LifecycleDeathReported, entity.LifecycleConsentGathering, map[string]any{
			"content_episode": episode,
		})
		if err != nil {
			return internalError("start consent episode", err)
		}

		if !ok {
			return apierror.NewLifecycleConflictError(lc, "The lifecycle changed, please refresh")
		}

		creatorName := l.displayName(dbc, creatorID)
		if consent.ContentRule.Evaluate(consent.Count(records)) == consent.OutcomeApproved {
			if apierr = l.openContent(dbc, lc, creatorName); apierr != nil {
				return apierr
			}
		} else {
			event := &events.ConsentRequested{CreatorName: creatorName, InitiatorName: user.DisplayName}
			if apierr = l.notifyFamily(dbc, creatorID, event, user.ID); apierr != nil {
				return apierr
			}
		}

		resp, apierr = l.buildConsentStatus(dbc, lc, entity.ConsentContent)
		return apierr
	})
	return resp, apierr
}

// SubmitConsent records the caller's decision in the current content
// episode. Decisions are final.
func (l *DefaultLifecycleService) SubmitConsent(ctx context.Context, user *entity.User, creatorID int64, req *contract.ConsentRequest) (*contract.ConsentStatusResponse, apierror.ErrorResponse) {
	if valerr := l.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	var resp *contract.ConsentStatusResponse
	apierr := runTx(ctx, l.Tx, func(dbc dbctx.Context) apierror.ErrorResponse {
		lc, apierr := l.lockLifecycle(dbc, creatorID)
		if apierr != nil {
			return apierr
		}

		actor, apierr := l.resolveActor(dbc, user, creatorID)
		if apierr != nil {
			return apierr
		}

		if apierr = l.Policy.Require(actor, entity.CapVote, "Only family members can vote"); apierr != nil {
			return apierr
		}

		if lc.Status != entity.LifecycleConsentGathering {
			return apierror.NewLifecycleConflictError(lc, "There is no consent vote in progress")
		}

		outcome, apierr := castVote(dbc, l.Repos.Consents, lc, entity.ConsentContent, actor.MemberID(), *req.Consented)
		if apierr != nil {
			return apierr
		}

		creatorName := l.displayName(dbc, creatorID)
		switch outcome {
		case consent.OutcomeApproved:
			if apierr = l.openContent(dbc, lc, creatorName); apierr != nil {
				return apierr
			}

		case consent.OutcomeDeclined:
			// Only reachable once every vote is in, and this vote was the last.
			if apierr = l.notifyFamily(dbc, creatorID, &events.ConsentDeclined{CreatorName: creatorName}); apierr != nil {
				return apierr
			}
		}

		resp, apierr = l.buildConsentStatus(dbc, lc, entity.ConsentContent)
		return apierr
	})
	return resp, apierr
}

func (l *DefaultLifecycleService) GetConsentStatus(ctx context.Context, user *entity.User, creatorID int64) (*contract.ConsentStatusResponse, apierror.ErrorResponse) {
	dbc := dbctx.Background(ctx)
	if _, apierr := l.resolveActor(dbc, user, creatorID); apierr != nil {
		return nil, apierr
	}

	lc, apierr := l.readLifecycle(dbc, creatorID)
	if apierr != nil {
		return nil, apierr
	}
	return l.buildConsentStatus(dbc, lc, entity.ConsentContent)
}

func (l *DefaultLifecycleService) openContent(dbc dbctx.Context, lc *entity.NoteLifecycle, creatorName string) apierror.ErrorResponse {
	ok, err := l.Repos.Lifecycles.CompareAndSetStatus(dbc, lc, entity.LifecycleConsentGathering, entity.LifecycleOpened, map[string]any{
		"opened_at": utils.NowUTC(),
	})
	if err != nil {
		return internalError("open content", err)
	}

	if !ok {
		return apierror.NewLifecycleConflictError(lc, "The lifecycle changed, please refresh")
	}
	return l.notifyFamily(dbc, lc.CreatorID, &events.ContentOpened{CreatorName: creatorName})
}

// castVote stores one decision and returns the episode outcome right after
// it, evaluated inside the same transaction.
func castVote(dbc dbctx.Context, repo ConsentRepository, lc *entity.NoteLifecycle, kind entity.ConsentKind, memberID int64, consented bool) (consent.Outcome, apierror.ErrorResponse) {
	record, err := repo.FindVoter(dbc, lc.ID, kind, memberID)
	if err != nil {
		return "", internalError("fetch consent record", err)
	}

	if record == nil {
		return "", apierror.NewSimple(http.StatusNotFound, apierror.KindNotFound, "You are not a voter in this episode")
	}

	if record.Responded() {
		return "", apierror.AlreadyRespondedError
	}

	ok, err := repo.RecordVote(dbc, record, consented, utils.NowUTC())
	if err != nil {
		return "", internalError("record vote", err)
	}

	if !ok {
		return "", apierror.AlreadyRespondedError
	}

	records, err := repo.FindEpisode(dbc, lc.ID, kind)
	if err != nil {
		return "", internalError("fetch consent episode", err)
	}
	return consent.RuleFor(kind).Evaluate(consent.Count(records)), nil
}

// buildConsentStatus renders the per-voter breakdown of the current episode.
func (f *familyCore) buildConsentStatus(dbc dbctx.Context, lc *entity.NoteLifecycle, kind entity.ConsentKind) (*contract.ConsentStatusResponse, apierror.ErrorResponse) {
	episode := lc.ContentEpisode
	if kind == entity.ConsentDeletion {
		episode = lc.DeletionEpisode
	}

	resp := &contract.ConsentStatusResponse{
		CreatorID:      lc.CreatorID,
		Kind:           kind,
		Episode:        episode,
		Outcome:        consent.OutcomePending,
		Status:         lc.Status,
		DeletionStatus: lc.DeletionStatus,
		Votes:          []*contract.ConsentVoteResponse{},
	}

	if lc.ID == 0 {
		return resp, nil
	}

	records, err := f.Repos.Consents.FindEpisode(dbc, lc.ID, kind)
	if err != nil {
		return nil, internalError("fetch consent episode", err)
	}

	members, err := f.Repos.Family.FindActiveByCreator(dbc, lc.CreatorID)
	if err != nil {
		return nil, internalError("fetch family members", err)
	}

	users, err := f.usersByID(dbc, members)
	if err != nil {
		return nil, internalError("fetch users", err)
	}

	byID := make(map[int64]*entity.FamilyMember, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}

	for _, r := range records {
		vote := &contract.ConsentVoteResponse{
			MemberID:     r.FamilyMemberID,
			Consented:    r.Consented,
			AutoResolved: r.AutoResolved,
			RespondedAt:  utils.FormatEpochPtr(r.RespondedAt),
		}

		if m := byID[r.FamilyMemberID]; m != nil {
			vote.UserID = m.MemberID
			vote.Relationship = m.Relationship
			vote.RelationshipLabel = m.RelationshipLabel
			vote.Role = m.Role
			if u := users[m.MemberID]; u != nil {
				vote.DisplayName = u.DisplayName
			}
		}
		resp.Votes = append(resp.Votes, vote)
	}

	resp.Tally = consent.Count(records)
	resp.Outcome = consent.RuleFor(kind).Evaluate(resp.Tally)
	return resp, nil
}
