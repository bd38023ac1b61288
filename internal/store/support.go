package store

import (
	"context"
	"strings"

	"bscar/backend/internal/apperr"
	"bscar/backend/internal/metrics"
	"bscar/backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func (s *Store) CreateTicket(ctx context.Context, user models.User, subject, message string) (*models.SupportTicket, error) {
	subject = strings.TrimSpace(subject)
	message = strings.TrimSpace(message)
	if subject == "" || message == "" {
		return nil, apperr.Validation("subject and message are required")
	}

	ticket := models.SupportTicket{
		UserID:  user.ID,
		Subject: subject,
		Message: message,
		Status:  models.TicketPending,
	}
	if err := s.db.WithContext(ctx).Create(&ticket).Error; err != nil {
		return nil, apperr.FromStore(err, "support ticket")
	}
	return &ticket, nil
}

// ListTickets returns every ticket to admins and a user's own tickets to
// everyone else, newest first.
func (s *Store) ListTickets(ctx context.Context, user models.User) ([]models.SupportTicket, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if user.IsAdmin() {
		q = q.Preload("User")
	} else {
		q = q.Where("user_id = ?", user.ID)
	}

	tickets := make([]models.SupportTicket, 0)
	if err := q.Find(&tickets).Error; err != nil {
		return nil, apperr.FromStore(err, "support tickets")
	}
	return tickets, nil
}

// ReplyTicket answers a pending ticket. A ticket is answered at most once.
func (s *Store) ReplyTicket(ctx context.Context, actor models.User, ticketID uint, reply string) (*models.SupportTicket, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, apperr.Validation("reply cannot be empty")
	}

	var ticket models.SupportTicket
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&ticket, ticketID).Error; err != nil {
			return err
		}
		if ticket.Status != models.TicketPending {
			return apperr.Domain("this ticket has already been answered")
		}

		// The status guard keeps a concurrent reply from overwriting this one.
		res := tx.Model(&models.SupportTicket{}).
			Where("id = ? AND status = ?", ticket.ID, models.TicketPending).
			Updates(map[string]interface{}{"reply": reply, "status": models.TicketAnswered})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Domain("this ticket has already been answered")
		}
		ticket.Reply = &reply
		ticket.Status = models.TicketAnswered

		return recordAction(tx, actor.ID, models.ActionReplyTicket, nil, &ticket.UserID, datatypes.JSONMap{"ticket_id": ticket.ID})
	})
	if err != nil {
		return nil, apperr.FromStore(err, "support ticket")
	}

	metrics.ModerationAction(string(models.ActionReplyTicket))
	return &ticket, nil
}
