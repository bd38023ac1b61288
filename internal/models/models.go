package models

// All lists every persisted model in dependency order, for migrations.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Listing{},
		&ListingImage{},
		&Favorite{},
		&Chat{},
		&Message{},
		&Complaint{},
		&SupportTicket{},
		&ModerationAction{},
	}
}
