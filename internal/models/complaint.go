package models

import "time"

type ComplaintStatus string

const ComplaintPending ComplaintStatus = "pending"

// Complaint is a user report against a listing, one per (listing, submitter).
type Complaint struct {
	ID          uint            `gorm:"primaryKey"`
	ListingID   uint            `gorm:"not null;index"`
	SubmitterID uint            `gorm:"not null;index"`
	Reason      string          `gorm:"size:255;not null"`
	Status      ComplaintStatus `gorm:"size:32;not null;default:'pending'"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Listing   Listing `gorm:"foreignKey:ListingID"`
	Submitter User    `gorm:"foreignKey:SubmitterID"`
}
