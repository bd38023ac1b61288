package models

import "time"

type TicketStatus string

const (
	TicketPending  TicketStatus = "pending"
	TicketAnswered TicketStatus = "answered"
)

// SupportTicket is a user's question to the administrators. Reply is set
// exactly once, by an admin, which moves the ticket to answered.
type SupportTicket struct {
	ID        uint         `gorm:"primaryKey"`
	UserID    uint         `gorm:"not null;index"`
	Subject   string       `gorm:"size:255;not null"`
	Message   string       `gorm:"type:text;not null"`
	Reply     *string      `gorm:"type:text"`
	Status    TicketStatus `gorm:"size:32;not null;default:'pending'"`
	CreatedAt time.Time    `gorm:"index"`
	UpdatedAt time.Time

	User User `gorm:"foreignKey:UserID"`
}
