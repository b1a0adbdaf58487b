package policy

import "familynotes/cmd/internal/domain/entity"

// Actor is a user acting on one creator's family. Membership is nil when the
// user is the creator.
type Actor struct {
	User       *entity.User
	CreatorID  int64
	Membership *entity.FamilyMember
}

func (a *Actor) IsCreator() bool {
	return a.User != nil && a.User.ID == a.CreatorID
}

// IsRepresentative is false for the creator, who is never a voter.
func (a *Actor) IsRepresentative() bool {
	return a.Membership.IsRepresentative()
}

func (a *Actor) Capabilities() entity.Capability {
	if a.IsCreator() {
		return entity.CreatorCapabilities
	}
	return a.Membership.Capabilities()
}

// MemberID is the acting family member row, 0 for the creator.
func (a *Actor) MemberID() int64 {
	if a.Membership == nil {
		return 0
	}
	return a.Membership.ID
}
