package models

import "gorm.io/gorm"

// Role is the closed set of account roles.
type Role string

const (
	RoleUser    Role = "user"
	RoleAdmin   Role = "admin"
	RoleBlocked Role = "blocked"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleBlocked:
		return true
	}
	return false
}

// User represents a marketplace account.
type User struct {
	gorm.Model
	Email          string  `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash   string  `gorm:"size:255;not null" json:"-"`
	Name           string  `gorm:"size:120"`
	Role           Role    `gorm:"size:32;not null;default:'user';index"`
	AvatarFilename *string `gorm:"size:255"`

	Listings []Listing `gorm:"foreignKey:OwnerID"`
}

func (u User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u User) IsBlocked() bool { return u.Role == RoleBlocked }

// DisplayName falls back to the email when no name was given.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
