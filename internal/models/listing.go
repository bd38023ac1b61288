package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ListingStatus string

const (
	ListingActive ListingStatus = "active"
	ListingSold   ListingStatus = "sold"
)

func (s ListingStatus) Valid() bool {
	return s == ListingActive || s == ListingSold
}

// Listing is a single classified advertisement. OwnerID is fixed at creation.
type Listing struct {
	ID          uint            `gorm:"primaryKey"`
	Title       string          `gorm:"size:200;not null"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status      ListingStatus   `gorm:"size:32;not null;default:'active';index"`
	OwnerID     uint            `gorm:"not null;index"`
	CategoryID  *uint           `gorm:"index"`
	CreatedAt   time.Time       `gorm:"index"`
	UpdatedAt   time.Time

	Owner    User           `gorm:"foreignKey:OwnerID"`
	Category *Category      `gorm:"foreignKey:CategoryID"`
	Images   []ListingImage `gorm:"foreignKey:ListingID"`
}

// ListingImage is an uploaded picture of a listing. At most one per listing
// has IsPrimary set.
type ListingImage struct {
	ID               uint   `gorm:"primaryKey"`
	ListingID        uint   `gorm:"not null;index"`
	Filename         string `gorm:"size:255;not null"`
	OriginalFilename string `gorm:"size:255;not null"`
	FileSize         int64
	IsPrimary        bool `gorm:"not null;default:false"`
	CreatedAt        time.Time
}

// PrimaryImage returns the primary image, if any.
func (l Listing) PrimaryImage() *ListingImage {
	for i := range l.Images {
		if l.Images[i].IsPrimary {
			return &l.Images[i]
		}
	}
	return nil
}
