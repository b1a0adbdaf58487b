package entity

type LifecycleStatus string

const (
	LifecycleActive           LifecycleStatus = "active"
	LifecycleDeathReported    LifecycleStatus = "death_reported"
	LifecycleConsentGathering LifecycleStatus = "consent_gathering"
	LifecycleOpened           LifecycleStatus = "opened"
)

var lifecycleTransitions = map[LifecycleStatus][]LifecycleStatus{
	LifecycleActive:           {LifecycleDeathReported},
	LifecycleDeathReported:    {LifecycleActive, LifecycleConsentGathering},
	LifecycleConsentGathering: {LifecycleOpened},
	LifecycleOpened:           {},
}

// CanTransitionTo reports whether 'next' is a legal successor of 's'.
func (s LifecycleStatus) CanTransitionTo(next LifecycleStatus) bool {
	for _, allowed := range lifecycleTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// DeletionStatus tracks the deletion-consent workflow. It lives next to the
// content status instead of replacing it, since deletion may start from any
// content status.
type DeletionStatus string

const (
	DeletionNone        DeletionStatus = "none"
	DeletionGathering   DeletionStatus = "gathering"
	DeletionDeclined    DeletionStatus = "declined"
	DeletionApproved    DeletionStatus = "approved"
	DeletionPurging     DeletionStatus = "purging"
	DeletionPurged      DeletionStatus = "purged"
	DeletionPurgeFailed DeletionStatus = "purge_failed"
)

var deletionTransitions = map[DeletionStatus][]DeletionStatus{
	DeletionNone:        {DeletionGathering},
	DeletionDeclined:    {DeletionGathering, DeletionNone},
	DeletionGathering:   {DeletionDeclined, DeletionApproved, DeletionNone},
	DeletionApproved:    {DeletionPurging},
	DeletionPurging:     {DeletionPurged, DeletionPurgeFailed},
	DeletionPurged:      {},
	DeletionPurgeFailed: {},
}

func (s DeletionStatus) CanTransitionTo(next DeletionStatus) bool {
	for _, allowed := range deletionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// NoteLifecycle is the single source of truth for what is legal for a
// creator. Exactly one row per creator; Status and DeletionStatus are only
// written through compare-and-set updates.
type NoteLifecycle struct {
	ID                 int64           `gorm:"primaryKey;autoIncrement:false"`
	CreatorID          int64           `gorm:"not null;uniqueIndex"`
	Status             LifecycleStatus `gorm:"not null;default:active"`
	ContentEpisode     int             `gorm:"not null;default:0"`
	DeletionStatus     DeletionStatus  `gorm:"not null;default:none"`
	DeletionEpisode    int             `gorm:"not null;default:0"`
	DeathReportedBy    *int64
	DeathReportedAt    *int64
	OpenedAt           *int64
	DeletionApprovedAt *int64
	PurgedAt           *int64
	CreatedAt          int64 `gorm:"not null"`
	UpdatedAt          int64 `gorm:"not null;autoUpdateTime:false"`
}

// NewLifecycle builds the implicit state of a creator that has no row yet.
func NewLifecycle(creatorID int64) *NoteLifecycle {
	return &NoteLifecycle{
		CreatorID:      creatorID,
		Status:         LifecycleActive,
		DeletionStatus: DeletionNone,
	}
}

// HasVoteInFlight reports whether any consent episode is collecting votes.
func (l *NoteLifecycle) HasVoteInFlight() bool {
	return l.Status == LifecycleConsentGathering || l.DeletionStatus == DeletionGathering
}

// ContentPurged reports whether the creator's content is gone or going.
func (l *NoteLifecycle) ContentPurged() bool {
	switch l.DeletionStatus {
	case DeletionApproved, DeletionPurging, DeletionPurged, DeletionPurgeFailed:
		return true
	}
	return false
}
