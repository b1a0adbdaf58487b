package entity

// Capability is a bitmask of what an actor may do for a given creator.
type Capability int64

const (
	// CapVote allows casting a vote in a consent episode the actor is part of.
	CapVote Capability = 1 << iota

	// CapReportDeath allows reporting and cancelling the creator's death.
	CapReportDeath

	// CapManageConsent allows starting the content-opening episode.
	CapManageConsent

	// CapManageDeletion allows starting and cancelling deletion episodes.
	CapManageDeletion

	// CapManageMembers allows inviting, updating and removing family members.
	CapManageMembers

	// CapManageAccess allows granting/revoking category access.
	CapManageAccess

	// CapApplyPresets allows applying the creator's recommended presets.
	CapApplyPresets

	// CapReadAllCategories is the implicit full read access of representatives.
	// It is never materialized as CategoryAccess rows.
	CapReadAllCategories

	// CapEditPresets allows authoring presets. Creators only.
	CapEditPresets

	// CapWriteNotes allows authoring the recorded content. Creators only.
	CapWriteNotes
)

const (
	memberCaps         = CapVote
	representativeCaps = memberCaps | CapReportDeath | CapManageConsent | CapManageDeletion |
		CapManageMembers | CapManageAccess | CapApplyPresets | CapReadAllCategories

	// CreatorCapabilities are held by the creator over their own family.
	CreatorCapabilities = CapManageMembers | CapManageAccess | CapEditPresets | CapWriteNotes
)

// RoleCapabilities maps a membership role to its capabilities.
func RoleCapabilities(role Role) Capability {
	switch role {
	case RoleRepresentative:
		return representativeCaps
	case RoleMember:
		return memberCaps
	default:
		return 0
	}
}

// Has checks if the bitmask contains ALL bits requested in 'target'.
func (c Capability) Has(target Capability) bool {
	return (c & target) == target
}
