package models

// Well-known category names used by the "new"/"used" listing filters.
const (
	CategoryNew  = "New"
	CategoryUsed = "Used"
)

// Category tags listings. Categories form a tree through ParentID.
type Category struct {
	ID       uint      `gorm:"primaryKey"`
	Name     string    `gorm:"size:120;uniqueIndex;not null"`
	ParentID *uint     `gorm:"index"`
	Parent   *Category `gorm:"foreignKey:ParentID"`
}
