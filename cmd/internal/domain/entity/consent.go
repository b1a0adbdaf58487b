package entity

// ConsentKind names the subject of a consent episode.
type ConsentKind string

const (
	ConsentContent  ConsentKind = "content"
	ConsentDeletion ConsentKind = "deletion"
)

// ConsentRecord is one voter's row in the current episode of a kind. The
// whole set of a kind is replaced when a new episode starts.
type ConsentRecord struct {
	ID             int64       `gorm:"primaryKey;autoIncrement:false"`
	LifecycleID    int64       `gorm:"not null;uniqueIndex:idx_consent_voter"`
	Kind           ConsentKind `gorm:"not null;uniqueIndex:idx_consent_voter"`
	FamilyMemberID int64       `gorm:"not null;uniqueIndex:idx_consent_voter;index"`
	Episode        int         `gorm:"not null"`
	Consented      *bool
	AutoResolved   bool `gorm:"not null;default:false"`
	RespondedAt    *int64
	CreatedAt      int64 `gorm:"not null"`
}

func (r *ConsentRecord) Responded() bool {
	return r.Consented != nil
}
