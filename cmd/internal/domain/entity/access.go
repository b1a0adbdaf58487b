package entity

// CategoryAccess is an explicit grant; absence means no access.
// Representatives never get rows, their access is implicit.
type CategoryAccess struct {
	ID             int64    `gorm:"primaryKey;autoIncrement:false"`
	CreatorID      int64    `gorm:"not null;uniqueIndex:idx_access_grant;index"`
	FamilyMemberID int64    `gorm:"not null;uniqueIndex:idx_access_grant;index"`
	CategoryID     Category `gorm:"not null;uniqueIndex:idx_access_grant"`
	GrantedBy      int64    `gorm:"not null"`
	CreatedAt      int64    `gorm:"not null"`
}

// AccessPreset is the creator's recommendation of what to grant once the
// content is opened. It does not grant anything on its own.
type AccessPreset struct {
	ID             int64    `gorm:"primaryKey;autoIncrement:false"`
	CreatorID      int64    `gorm:"not null;uniqueIndex:idx_access_preset;index"`
	FamilyMemberID int64    `gorm:"not null;uniqueIndex:idx_access_preset;index"`
	CategoryID     Category `gorm:"not null;uniqueIndex:idx_access_preset"`
	CreatedAt      int64    `gorm:"not null"`
}
