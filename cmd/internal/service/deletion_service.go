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
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

// ContentPurger permanently removes everything the creator recorded.
type ContentPurger interface {
	PurgeCreatorData(ctx context.Context, creatorID int64) error
}

// DefaultDeletionService runs the deletion consent episode and hands approved
// episodes to the purger exactly once.
type DefaultDeletionService struct {
	*familyCore
	Purger   ContentPurger
	Validate *validator.Validate
}

func NewDeletionService(tx TxRunner, repos Repositories, familyPolicy *policy.FamilyPolicy, purger ContentPurger, validate *validator.Validate) *DefaultDeletionService {
	return &DefaultDeletionService{
		familyCore: newFamilyCore(tx, repos, familyPolicy),
		Purger:     purger,
		Validate:   validate,
	}
}

func (d *DefaultDeletionService) InitiateDataDeletion(ctx context.Context, user *entity.User, creatorID int64) (*contract.ConsentStatusResponse, apierror.ErrorResponse) {
	var (
		resp     *contract.ConsentStatusResponse
		approved bool
	)

	apierr := runTx(ctx, d.Tx, func(dbc dbctx.Context) apierror.ErrorResponse {
		lc, apierr := d.lockLifecycle(dbc, creatorID)
		if apierr != nil {
			return apierr
		}

		actor, apierr := d.resolveActor(dbc, user, creatorID)
		if apierr != nil {
			return apierr
		}

		if apierr = d.Policy.Require(actor, entity.CapManageDeletion, "Only representatives can request deletion"); apierr != nil {
			return apierr
		}

		from := lc.DeletionStatus
		if from != entity.DeletionNone && from != entity.DeletionDeclined {
			return apierror.NewLifecycleConflictError(lc, "A deletion request is already in progress or done")
		}

		members, err := d.Repos.Family.FindActiveByCreator(dbc, creatorID)
		if err != nil {
			return internalError("fetch family members", err)
		}

		episode := lc.DeletionEpisode + 1
		records := consent.Seed(lc.ID, entity.ConsentDeletion, episode, members, actor.MemberID(), utils.NowUTC())
		if err = d.Repos.Consents.ReplaceEpisode(dbc, lc.ID, entity.ConsentDeletion, records); err != nil {
			return internalError("seed deletion consent", err)
		}

		ok, err := d.Repos.Lifecycles.CompareAndSetDeletion(dbc, lc, from, entity.DeletionGathering, map[string]any{
			"deletion_episode": episode,
		})
		if err != nil {
			return internalError("start deletion episode", err)
		}

		if !ok {
			return apierror.NewLifecycleConflictError(lc, "The lifecycle changed, please refresh")
		}

		creatorName := d.displayName(dbc, creatorID)
		if consent.DeletionRule.Evaluate(consent.Count(records)) == consent.OutcomeApproved {
			if apierr = d.approveDeletion(dbc, lc); apierr != nil {
				return apierr
			}
			approved = true
		} else {
			event := &events.DeletionRequested{CreatorName: creatorName, InitiatorName: user.DisplayName}
			if apierr = d.notifyFamily(dbc, creatorID, event, user.ID); apierr != nil {
				return apierr
			}
		}

		resp, apierr = d.buildConsentStatus(dbc, lc, entity.ConsentDeletion)
		return apierr
	})

	if apierr != nil {
		return nil, apierr
	}

	if approved {
		d.purgeAfterApproval(ctx, creatorID, resp)
	}
	return resp, nil
}

// SubmitDeletionConsent records a deletion vote. The first decline ends the
// episode, unanimity approves it and triggers the purge after commit.
func (d *DefaultDeletionService) SubmitDeletionConsent(ctx context.Context, user *entity.User, creatorID int64, req *contract.ConsentRequest) (*contract.ConsentStatusResponse, apierror.ErrorResponse) {
	if valerr := d.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	var (
		resp     *contract.ConsentStatusResponse
		approved bool
	)

	apierr := runTx(ctx, d.Tx, func(dbc dbctx.Context) apierror.ErrorResponse {
		lc, apierr := d.lockLifecycle(dbc, creatorID)
		if apierr != nil {
			return apierr
		}

		actor, apierr := d.resolveActor(dbc, user, creatorID)
		if apierr != nil {
			return apierr
		}

		if apierr = d.Policy.Require(actor, entity.CapVote, "Only family members can vote"); apierr != nil {
			return apierr
		}

		if lc.DeletionStatus != entity.DeletionGathering {
			return apierror.NewLifecycleConflictError(lc, "There is no deletion vote in progress")
		}

		outcome, apierr := castVote(dbc, d.Repos.Consents, lc, entity.ConsentDeletion, actor.MemberID(), *req.Consented)
		if apierr != nil {
			return apierr
		}

		switch outcome {
		case consent.OutcomeApproved:
			if apierr = d.approveDeletion(dbc, lc); apierr != nil {
				return apierr
			}
			approved = true

		case consent.OutcomeDeclined:
			ok, err := d.Repos.Lifecycles.CompareAndSetDeletion(dbc, lc, entity.DeletionGathering, entity.DeletionDeclined, nil)
			if err != nil {
				return internalError("decline deletion", err)
			}

			if !ok {
				return apierror.NewLifecycleConflictError(lc, "The lifecycle changed, please refresh")
			}

			event := &events.DeletionDeclined{CreatorName: d.displayName(dbc, creatorID)}
			if apierr = d.notifyFamily(dbc, creatorID, event); apierr != nil {
				return apierr
			}
		}

		resp, apierr = d.buildConsentStatus(dbc, lc, entity.ConsentDeletion)
		return apierr
	})

	if apierr != nil {
		return nil, apierr
	}

	if approved {
		d.purgeAfterApproval(ctx, creatorID, resp)
	}
	return resp, nil
}

func (d *DefaultDeletionService) CancelDataDeletion(ctx context.Context, user *entity.User, creatorID int64) (*contract.LifecycleResponse, apierror.ErrorResponse) {
	var resp *contract.LifecycleResponse
	apierr := runTx(ctx, d.Tx, func(dbc dbctx.Context) apierror.ErrorResponse {
		lc, apierr := d.lockLifecycle(dbc, creatorID)
		if apierr != nil {
			return apierr
		}

		actor, apierr := d.resolveActor(dbc, user, creatorID)
		if apierr != nil {
			return apierr
		}

		if apierr = d.Policy.Require(actor, entity.CapManageDeletion, "Only representatives can cancel a deletion request"); apierr != nil {
			return apierr
		}

		from := lc.DeletionStatus
		if from != entity.DeletionGathering && from != entity.DeletionDeclined {
			return apierror.NewLifecycleConflictError(lc, "There is no deletion request to cancel")
		}

		ok, err := d.Repos.Lifecycles.CompareAndSetDeletion(dbc, lc, from, entity.DeletionNone, nil)
		if err != nil {
			return internalError("cancel deletion", err)
		}

		if !ok {
			return apierror.NewLifecycleConflictError(lc, "The lifecycle changed, please refresh")
		}

		if err = d.Repos.Consents.DeleteEpisode(dbc, lc.ID, entity.ConsentDeletion); err != nil {
			return internalError("clear deletion consent", err)
		}

		event := &events.DeletionCancelled{
			CreatorName: d.displayName(dbc, creatorID),
			CancelledBy: user.DisplayName,
		}
		if apierr = d.notifyFamily(dbc, creatorID, event, user.ID); apierr != nil {
			return apierr
		}

		resp = toLifecycleResponse(lc)
		return nil
	})
	return resp, apierr
}

func (d *DefaultDeletionService) GetDeletionConsentStatus(ctx context.Context, user *entity.User, creatorID int64) (*contract.ConsentStatusResponse, apierror.ErrorResponse) {
	dbc := dbctx.Background(ctx)
	if _, apierr := d.resolveActor(dbc, user, creatorID); apierr != nil {
		return nil, apierr
	}

	lc, apierr := d.readLifecycle(dbc, creatorID)
	if apierr != nil {
		return nil, apierr
	}
	return d.buildConsentStatus(dbc, lc, entity.ConsentDeletion)
}

// PurgeApproved claims an approved episode and runs the purge. Only the
// caller that wins the approved -> purging claim calls the purger, every
// other caller returns false without side effects.
func (d *DefaultDeletionService) PurgeApproved(ctx context.Context, creatorID int64) (bool, error) {
	claimed := false
	err := d.Tx.InTx(ctx, func(dbc dbctx.Context) error {
		lc, err := d.Repos.Lifecycles.LockByCreator(dbc, creatorID)
		if err != nil || lc == nil || lc.DeletionStatus != entity.DeletionApproved {
			return err
		}

		claimed, err = d.Repos.Lifecycles.CompareAndSetDeletion(dbc, lc, entity.DeletionApproved, entity.DeletionPurging, nil)
		return err
	})

	if err != nil || !claimed {
		return false, err
	}

	final := entity.DeletionPurged
	updates := map[string]any{"purged_at": utils.NowUTC()}
	if perr := d.Purger.PurgeCreatorData(ctx, creatorID); perr != nil {
		log.Errorf("purge of creator %d failed: %v", creatorID, perr)
		final = entity.DeletionPurgeFailed
		updates = nil
	}

	err = d.Tx.InTx(ctx, func(dbc dbctx.Context) error {
		lc, err := d.Repos.Lifecycles.LockByCreator(dbc, creatorID)
		if err != nil || lc == nil {
			return err
		}

		ok, err := d.Repos.Lifecycles.CompareAndSetDeletion(dbc, lc, entity.DeletionPurging, final, updates)
		if err != nil || !ok || final != entity.DeletionPurged {
			return err
		}

		recipients, err := d.audience(dbc, creatorID)
		if err != nil {
			return err
		}
		return d.Notifier.Notify(dbc, creatorID, recipients, &events.DeletionCompleted{CreatorName: d.displayName(dbc, creatorID)})
	})
	return true, err
}

// RecoverApproved finishes episodes approved more than 'grace' ago whose
// purge never started, typically because the process died after commit.
func (d *DefaultDeletionService) RecoverApproved(ctx context.Context, grace time.Duration) (int, error) {
	before := utils.NowUTC() - grace.Milliseconds()
	stale, err := d.Repos.Lifecycles.FindByDeletionStatus(dbctx.Background(ctx), entity.DeletionApproved, before)
	if err != nil {
		return 0, err
	}

	purged := 0
	for _, lc := range stale {
		ok, err := d.PurgeApproved(ctx, lc.CreatorID)
		if err != nil {
			log.Errorf("failed to recover purge of creator %d: %v", lc.CreatorID, err)
			continue
		}

		if ok {
			purged++
		}
	}
	return purged, nil
}

func (d *DefaultDeletionService) approveDeletion(dbc dbctx.Context, lc *entity.NoteLifecycle) apierror.ErrorResponse {
	ok, err := d.Repos.Lifecycles.CompareAndSetDeletion(dbc, lc, entity.DeletionGathering, entity.DeletionApproved, map[string]any{
		"deletion_approved_at": utils.NowUTC(),
	})
	if err != nil {
		return internalError("approve deletion", err)
	}

	if !ok {
		return apierror.NewLifecycleConflictError(lc, "The lifecycle changed, please refresh")
	}
	return nil
}

// purgeAfterApproval runs once the approving transaction committed. A failure
// here leaves the episode approved for the recovery job to pick up.
func (d *DefaultDeletionService) purgeAfterApproval(ctx context.Context, creatorID int64, resp *contract.ConsentStatusResponse) {
	if _, err := d.PurgeApproved(context.WithoutCancel(ctx), creatorID); err != nil {
		log.Errorf("failed to purge creator %d after approval: %v", creatorID, err)
		return
	}

	lc, err := d.Repos.Lifecycles.FindByCreator(dbctx.Background(ctx), creatorID)
	if err == nil && lc != nil {
		resp.Status = lc.Status
		resp.DeletionStatus = lc.DeletionStatus
	}
}
