package models

import "time"

// Favorite is a user's bookmark of a listing. (UserID, ListingID) is unique.
type Favorite struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"not null;uniqueIndex:uq_favorite"`
	ListingID uint `gorm:"not null;uniqueIndex:uq_favorite;index"`
	CreatedAt time.Time

	User    User    `gorm:"foreignKey:UserID"`
	Listing Listing `gorm:"foreignKey:ListingID"`
}
