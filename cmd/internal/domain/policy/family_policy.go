package policy

import (
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/utils/apierror"
)

// FamilyPolicy encapsulates the membership and lifecycle guards.
// It returns apierror.ErrorResponse directly for seamless integration with handlers.
type FamilyPolicy struct {
	MaxRepresentatives int
}

func NewFamilyPolicy(maxRepresentatives int) *FamilyPolicy {
	if maxRepresentatives <= 0 {
		maxRepresentatives = entity.DefaultMaxRepresentatives
	}
	return &FamilyPolicy{MaxRepresentatives: maxRepresentatives}
}

// Require fails unless the actor holds every capability in 'caps'.
func (p *FamilyPolicy) Require(actor *Actor, caps entity.Capability, msg string) apierror.ErrorResponse {
	if actor == nil || !actor.Capabilities().Has(caps) {
		return forbiddenError(msg)
	}
	return nil
}

// RequireCreator is for operations only the creator may perform.
func (p *FamilyPolicy) RequireCreator(actor *Actor, msg string) apierror.ErrorResponse {
	if actor == nil || !actor.IsCreator() {
		return forbiddenError(msg)
	}
	return nil
}

// CanPromote checks the representative cap. 'current' is the number of active
// representatives before the promotion.
func (p *FamilyPolicy) CanPromote(current int) apierror.ErrorResponse {
	if current >= p.MaxRepresentatives {
		return apierror.NewMaxRepresentativesError(p.MaxRepresentatives)
	}
	return nil
}

// CanChangeRole covers both directions. 'reps' counts active representatives
// including the target.
func (p *FamilyPolicy) CanChangeRole(lc *entity.NoteLifecycle, target *entity.FamilyMember, next entity.Role, reps int) apierror.ErrorResponse {
	if target.Role == next {
		return nil
	}

	if lc.HasVoteInFlight() {
		return apierror.NewBlockedByLifecycleError(lc, "Roles cannot change while a consent vote is in progress")
	}

	if next == entity.RoleRepresentative {
		return p.CanPromote(reps)
	}

	// Demotion
	if target.IsRepresentative() && reps <= 1 {
		switch lc.Status {
		case entity.LifecycleDeathReported, entity.LifecycleConsentGathering:
			return apierror.NewBlockedByLifecycleError(lc, "The only representative cannot step down while the death report is being handled")
		}
	}
	return nil
}

// CanRemove is checked for removals performed by the creator or a
// representative. 'members' counts active rows including the target.
func (p *FamilyPolicy) CanRemove(lc *entity.NoteLifecycle, members int) apierror.ErrorResponse {
	switch {
	case lc.Status == entity.LifecycleConsentGathering:
		return apierror.NewBlockedByLifecycleError(lc, "Members cannot be removed while consent is being gathered")
	case lc.Status == entity.LifecycleDeathReported:
		return apierror.NewBlockedByLifecycleError(lc, "Members cannot be removed while a death report is pending")
	case lc.DeletionStatus == entity.DeletionGathering:
		return apierror.NewBlockedByLifecycleError(lc, "Members cannot be removed while deletion consent is being gathered")
	case members <= 1:
		return apierror.LastMemberError.WithLifecycle(lc)
	}
	return nil
}

// CanLeave checks whether 'member' may leave. 'reps' and 'members' count the
// active rows including the one leaving.
func (p *FamilyPolicy) CanLeave(lc *entity.NoteLifecycle, member *entity.FamilyMember, reps, members int) apierror.ErrorResponse {
	if lc.HasVoteInFlight() {
		return apierror.NewBlockedByLifecycleError(lc, "You cannot leave while a consent vote is in progress")
	}

	if lc.Status == entity.LifecycleDeathReported && member.IsRepresentative() && reps <= 1 {
		return apierror.NewBlockedByLifecycleError(lc, "Appoint another representative before leaving")
	}

	// Once anyone joined, the family never drops back to zero members.
	if members <= 1 {
		return apierror.LastMemberError.WithLifecycle(lc)
	}
	return nil
}

// CanEditPresets allows preset writes only while the creator is alive.
func (p *FamilyPolicy) CanEditPresets(lc *entity.NoteLifecycle) apierror.ErrorResponse {
	if lc.Status != entity.LifecycleActive {
		return apierror.NewBlockedByLifecycleError(lc, "Presets can only be changed while the lifecycle is active")
	}
	return nil
}

func forbiddenError(msg string) *apierror.APIError {
	return apierror.NewForbiddenError(msg)
}
