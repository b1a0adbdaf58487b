package entity

// Note is one entry of the creator's recorded content. Family members only
// ever read notes after the lifecycle is opened, filtered by category.
type Note struct {
	ID         int64    `gorm:"primaryKey;autoIncrement:false"`
	CreatorID  int64    `gorm:"not null;index"` // References: users(id)
	CategoryID Category `gorm:"not null;index"`
	Title      string   `gorm:"not null"`
	Content    string   `gorm:"not null"`
	Tags       string   `gorm:"not null"`
	CreatedAt  int64    `gorm:"not null"`
	UpdatedAt  int64    `gorm:"not null;autoUpdateTime:false"`
}
