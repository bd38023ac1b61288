package models

import "time"

// Chat is a conversation about one listing between a buyer and the listing's
// owner. (ListingID, BuyerID, SellerID) is unique.
type Chat struct {
	ID        uint `gorm:"primaryKey"`
	ListingID uint `gorm:"not null;uniqueIndex:uq_chat_triplet"`
	BuyerID   uint `gorm:"not null;uniqueIndex:uq_chat_triplet;index"`
	SellerID  uint `gorm:"not null;uniqueIndex:uq_chat_triplet;index"`
	CreatedAt time.Time
	UpdatedAt time.Time `gorm:"index"`

	Listing  Listing   `gorm:"foreignKey:ListingID"`
	Buyer    User      `gorm:"foreignKey:BuyerID"`
	Seller   User      `gorm:"foreignKey:SellerID"`
	Messages []Message `gorm:"foreignKey:ChatID"`
}

// HasParticipant reports whether userID is the buyer or the seller.
func (c Chat) HasParticipant(userID uint) bool {
	return c.BuyerID == userID || c.SellerID == userID
}

// Counterpart returns the participant that is not userID.
func (c Chat) Counterpart(userID uint) User {
	if c.BuyerID == userID {
		return c.Seller
	}
	return c.Buyer
}
