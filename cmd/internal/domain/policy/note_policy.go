package policy

import (
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/utils/apierror"
)

// NotePolicy encapsulates the rules around the creator's recorded content.
type NotePolicy struct{}

func NewNotePolicy() *NotePolicy {
	return &NotePolicy{}
}

// CanWrite allows the creator to author notes until the lifecycle leaves
// active or a purge begins.
func (p *NotePolicy) CanWrite(actor *Actor, lc *entity.NoteLifecycle) apierror.ErrorResponse {
	if actor == nil || !actor.Capabilities().Has(entity.CapWriteNotes) {
		return forbiddenError("Only the creator can write notes")
	}

	if lc.Status != entity.LifecycleActive || lc.ContentPurged() {
		return apierror.NewBlockedByLifecycleError(lc, "Notes can no longer be changed")
	}
	return nil
}

// CanOwn hides notes of other creators behind a NotFound.
func (p *NotePolicy) CanOwn(actor *Actor, note *entity.Note) apierror.ErrorResponse {
	if note == nil || actor == nil || note.CreatorID != actor.User.ID {
		return apierror.NotFoundError
	}
	return nil
}

// CanReadFamilyNotes gates member reads on the opened lifecycle.
func (p *NotePolicy) CanReadFamilyNotes(actor *Actor, lc *entity.NoteLifecycle) apierror.ErrorResponse {
	if actor == nil || actor.IsCreator() || actor.Membership == nil {
		return forbiddenError("Only family members can read these notes")
	}

	if lc.Status != entity.LifecycleOpened || lc.ContentPurged() {
		return apierror.NewBlockedByLifecycleError(lc, "These notes are not open for reading")
	}
	return nil
}

// CanReadCategory is the single read check of the access matrix.
func CanReadCategory(member *entity.FamilyMember, hasGrant bool) bool {
	return member.IsRepresentative() || (member.Capabilities() != 0 && hasGrant)
}
