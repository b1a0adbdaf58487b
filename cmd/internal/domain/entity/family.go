package entity

type Role string

const (
	RoleRepresentative Role = "representative"
	RoleMember         Role = "member"
)

// DefaultMaxRepresentatives is the cap of active representatives per creator.
const DefaultMaxRepresentatives = 3

func (r Role) Valid() bool {
	return r == RoleRepresentative || r == RoleMember
}

// FamilyMember links a user (MemberID) to a creator. Rows are unique per
// (CreatorID, MemberID) and are hard-deleted on removal.
type FamilyMember struct {
	ID                int64  `gorm:"primaryKey;autoIncrement:false"`
	CreatorID         int64  `gorm:"not null;uniqueIndex:idx_family_creator_member;index"` // References: users(id)
	MemberID          int64  `gorm:"not null;uniqueIndex:idx_family_creator_member;index"` // References: users(id)
	Relationship      string `gorm:"not null"`
	RelationshipLabel string `gorm:"not null"`
	Role              Role   `gorm:"not null;default:member"`
	IsActive          bool   `gorm:"not null;default:true"`
	JoinedAt          int64  `gorm:"not null"`
	UpdatedAt         int64  `gorm:"not null;autoUpdateTime:false"`
}

// IsRepresentative reports whether the row currently holds representative
// rights. Inactive rows hold nothing.
func (m *FamilyMember) IsRepresentative() bool {
	return m != nil && m.IsActive && m.Role == RoleRepresentative
}

// Capabilities resolves what the member may do, independent of lifecycle.
func (m *FamilyMember) Capabilities() Capability {
	if m == nil || !m.IsActive {
		return 0
	}
	return RoleCapabilities(m.Role)
}
