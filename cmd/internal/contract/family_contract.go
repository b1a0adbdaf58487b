package contract

import "familynotes/cmd/internal/domain/entity"

type InviteRequest struct {
	Relationship      string `json:"relationship" validate:"required,min=2,max=40"`
	RelationshipLabel string `json:"relationship_label" validate:"max=80"`
	Role              string `json:"role" validate:"required,oneof=representative member"`
}

type InvitationResponse struct {
	Token             string      `json:"token"`
	CreatorID         int64       `json:"creator_id"`
	CreatorName       string      `json:"creator_name"`
	InvitedBy         int64       `json:"invited_by"`
	Relationship      string      `json:"relationship"`
	RelationshipLabel string      `json:"relationship_label"`
	Role              entity.Role `json:"role"`
	ExpiresAt         string      `json:"expires_at"`
	Accepted          bool        `json:"accepted"`
	Expired           bool        `json:"expired"`
}

type UpdateMemberRequest struct {
	Role              *string `json:"role" validate:"omitempty,oneof=representative member"`
	Relationship      *string `json:"relationship" validate:"omitempty,min=2,max=40"`
	RelationshipLabel *string `json:"relationship_label" validate:"omitempty,max=80"`
}

type FamilyMemberResponse struct {
	ID                int64       `json:"id"`
	CreatorID         int64       `json:"creator_id"`
	UserID            int64       `json:"user_id"`
	DisplayName       string      `json:"display_name"`
	Relationship      string      `json:"relationship"`
	RelationshipLabel string      `json:"relationship_label"`
	Role              entity.Role `json:"role"`
	IsActive          bool        `json:"is_active"`
	JoinedAt          string      `json:"joined_at"`
}

type FamilyResponse struct {
	CreatorID           int64                   `json:"creator_id"`
	RepresentativeCount int                     `json:"representative_count"`
	MaxRepresentatives  int                     `json:"max_representatives"`
	Members             []*FamilyMemberResponse `json:"members"`
}

// MembershipResponse is one family the caller belongs to.
type MembershipResponse struct {
	*FamilyMemberResponse
	CreatorName     string                 `json:"creator_name"`
	LifecycleStatus entity.LifecycleStatus `json:"lifecycle_status"`
	DeletionStatus  entity.DeletionStatus  `json:"deletion_status"`
}
