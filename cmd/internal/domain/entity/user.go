package entity

// User mirrors an identity verified by the token issuer. Creators and family
// members are both plain users; nothing here knows about families.
type User struct {
	ID          int64  `gorm:"primaryKey;autoIncrement:false"`
	SubUUID     string `gorm:"not null;uniqueIndex"`
	DisplayName string `gorm:"not null"`
	Active      bool   `gorm:"not null;default:true"`
	CreatedAt   int64  `gorm:"not null"`
	UpdatedAt   int64  `gorm:"not null;autoUpdateTime:false"`
}
