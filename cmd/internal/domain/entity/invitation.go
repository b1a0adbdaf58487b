package entity

import "time"

// DefaultInvitationTTL is how long an invitation token stays usable.
const DefaultInvitationTTL = 7 * 24 * time.Hour

// FamilyInvitation is a single-use token granting membership to whoever
// accepts it first. Acceptance is terminal.
type FamilyInvitation struct {
	ID                int64  `gorm:"primaryKey;autoIncrement:false"`
	CreatorID         int64  `gorm:"not null;index"`
	InvitedBy         int64  `gorm:"not null"`
	Token             string `gorm:"not null;uniqueIndex"`
	Relationship      string `gorm:"not null"`
	RelationshipLabel string `gorm:"not null"`
	Role              Role   `gorm:"not null;default:member"`
	ExpiresAt         int64  `gorm:"not null;index"`
	AcceptedAt        *int64
	AcceptedBy        *int64
	CreatedAt         int64 `gorm:"not null"`
}

func (i *FamilyInvitation) IsAccepted() bool {
	return i.AcceptedAt != nil
}

// IsExpired compares against the wall clock at read time, there is no sweep
// that flips a flag.
func (i *FamilyInvitation) IsExpired(now int64) bool {
	return now >= i.ExpiresAt
}
