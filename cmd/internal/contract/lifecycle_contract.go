package contract

import (
	"familynotes/cmd/internal/domain/consent"
	"familynotes/cmd/internal/domain/entity"
)

type LifecycleResponse struct {
	CreatorID          int64                  `json:"creator_id"`
	Status             entity.LifecycleStatus `json:"status"`
	DeletionStatus     entity.DeletionStatus  `json:"deletion_status"`
	ContentEpisode     int                    `json:"content_episode"`
	DeletionEpisode    int                    `json:"deletion_episode"`
	DeathReportedBy    *int64                 `json:"death_reported_by,omitempty"`
	DeathReportedAt    *string                `json:"death_reported_at,omitempty"`
	OpenedAt           *string                `json:"opened_at,omitempty"`
	DeletionApprovedAt *string                `json:"deletion_approved_at,omitempty"`
	PurgedAt           *string                `json:"purged_at,omitempty"`
}

// ConsentRequest carries a single decision. A pointer so an explicit false
// is told apart from a missing field.
type ConsentRequest struct {
	Consented *bool `json:"consented" validate:"required"`
}

type ConsentVoteResponse struct {
	MemberID          int64       `json:"member_id"`
	UserID            int64       `json:"user_id"`
	DisplayName       string      `json:"display_name"`
	Relationship      string      `json:"relationship"`
	RelationshipLabel string      `json:"relationship_label"`
	Role              entity.Role `json:"role"`
	Consented         *bool       `json:"consented"`
	AutoResolved      bool        `json:"auto_resolved"`
	RespondedAt       *string     `json:"responded_at"`
}

type ConsentStatusResponse struct {
	consent.Tally
	CreatorID      int64                  `json:"creator_id"`
	Kind           entity.ConsentKind     `json:"kind"`
	Episode        int                    `json:"episode"`
	Outcome        consent.Outcome        `json:"outcome"`
	Status         entity.LifecycleStatus `json:"status"`
	DeletionStatus entity.DeletionStatus  `json:"deletion_status"`
	Votes          []*ConsentVoteResponse `json:"votes"`
}
