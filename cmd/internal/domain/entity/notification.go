package entity

type NotificationType string

const (
	NotificationMemberJoined         NotificationType = "member_joined"
	NotificationMemberLeft           NotificationType = "member_left"
	NotificationMemberRemoved        NotificationType = "member_removed"
	NotificationRoleChanged          NotificationType = "role_changed"
	NotificationDeathReported        NotificationType = "death_reported"
	NotificationDeathReportCancelled NotificationType = "death_report_cancelled"
	NotificationConsentRequested     NotificationType = "consent_requested"
	NotificationContentOpened        NotificationType = "content_opened"
	NotificationConsentDeclined      NotificationType = "consent_declined"
	NotificationDeletionRequested    NotificationType = "deletion_requested"
	NotificationDeletionDeclined     NotificationType = "deletion_declined"
	NotificationDeletionCancelled    NotificationType = "deletion_cancelled"
	NotificationDeletionCompleted    NotificationType = "deletion_completed"
	NotificationAccessGranted        NotificationType = "access_granted"
	NotificationAccessRevoked        NotificationType = "access_revoked"
	NotificationPresetsApplied       NotificationType = "presets_applied"
)

// Notification is append-only; IsRead is the only mutable column.
type Notification struct {
	ID               int64            `gorm:"primaryKey;autoIncrement:false"`
	UserID           int64            `gorm:"not null;index"`
	Type             NotificationType `gorm:"not null"`
	Title            string           `gorm:"not null"`
	Message          string           `gorm:"not null"`
	RelatedCreatorID int64            `gorm:"not null;index"`
	IsRead           bool             `gorm:"not null;default:false"`
	CreatedAt        int64            `gorm:"not null;index"`
}
