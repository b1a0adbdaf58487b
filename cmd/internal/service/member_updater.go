package service

import (
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/domain/policy"
	"familynotes/cmd/internal/utils/apierror"
)

// memberUpdater acts as a "Change Set" context.
// It accumulates errors and tracks if a save is actually needed.
type memberUpdater struct {
	lc     *entity.NoteLifecycle
	target *entity.FamilyMember
	policy *policy.FamilyPolicy

	// Active representatives before the change, target included.
	reps int

	// State
	err         apierror.ErrorResponse
	dirty       bool
	roleChanged bool
}

func (u *memberUpdater) setString(newVal *string, targetField *string) {
	if u.err != nil || newVal == nil {
		return
	}

	if *newVal == *targetField {
		return
	}

	*targetField = *newVal
	u.dirty = true
}

// setRole enforces the representative cap and the sole-representative guard.
func (u *memberUpdater) setRole(newVal *string) {
	if u.err != nil || newVal == nil {
		return
	}

	next := entity.Role(*newVal)
	if u.target.Role == next {
		return
	}

	if err := u.policy.CanChangeRole(u.lc, u.target, next, u.reps); err != nil {
		u.err = err
		return
	}

	u.target.Role = next
	u.dirty = true
	u.roleChanged = true
}
