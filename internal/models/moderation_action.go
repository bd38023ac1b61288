package models

import (
	"time"

	"gorm.io/datatypes"
)

type ModerationKind string

const (
	ActionGrantAdmin    ModerationKind = "grant_admin"
	ActionBlockUser     ModerationKind = "block_user"
	ActionDeleteListing ModerationKind = "delete_listing"
	ActionReplyTicket   ModerationKind = "reply_ticket"
)

// ModerationAction records an admin action. ListingID and TargetUserID are
// plain columns so the record survives deletion of its subject.
type ModerationAction struct {
	ID           uint              `gorm:"primaryKey"`
	ModeratorID  uint              `gorm:"not null;index"`
	ListingID    *uint             `gorm:"index"`
	TargetUserID *uint             `gorm:"index"`
	Action       ModerationKind    `gorm:"size:64;not null;index"`
	Details      datatypes.JSONMap `gorm:"type:json"`
	CreatedAt    time.Time

	Moderator User `gorm:"foreignKey:ModeratorID"`
}
