package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"bscar/backend/internal/apperr"
	"bscar/backend/internal/hub"
	"bscar/backend/internal/metrics"
	"bscar/backend/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MessageEvent is the payload published to chat subscribers.
type MessageEvent struct {
	ID         uint      `json:"id"`
	ChatID     uint      `json:"chat_id"`
	AuthorID   uint      `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// OpenOrReuseChat returns the chat between buyer and the owner of listingID,
// creating it on first contact. created reports whether a new chat was made.
func (s *Store) OpenOrReuseChat(ctx context.Context, buyer models.User, listingID uint) (*models.Chat, bool, error) {
	db := s.db.WithContext(ctx)

	var listing models.Listing
	if err := db.First(&listing, listingID).Error; err != nil {
		return nil, false, apperr.FromStore(err, "listing")
	}
	if listing.OwnerID == buyer.ID {
		return nil, false, apperr.Domain("you cannot contact yourself")
	}

	key := models.Chat{ListingID: listing.ID, BuyerID: buyer.ID, SellerID: listing.OwnerID}
	existing, err := findChat(db, key)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, apperr.FromStore(err, "chat")
	}

	chat := key
	if err := db.Create(&chat).Error; err != nil {
		// Lost a race with a concurrent first contact; use the winner's row.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if existing, findErr := findChat(db, key); findErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, apperr.FromStore(err, "chat")
	}

	s.log.WithFields(logrus.Fields{
		"chat_id":    chat.ID,
		"listing_id": chat.ListingID,
		"buyer_id":   chat.BuyerID,
	}).Info("chat opened")
	return &chat, true, nil
}

func findChat(db *gorm.DB, key models.Chat) (*models.Chat, error) {
	var chat models.Chat
	err := db.Where("listing_id = ? AND buyer_id = ? AND seller_id = ?", key.ListingID, key.BuyerID, key.SellerID).
		First(&chat).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// AppendMessage adds a message from author to a chat and bumps the chat's
// updated_at. The new message is then published to the chat's subscribers.
func (s *Store) AppendMessage(ctx context.Context, chatID uint, author models.User, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Validation("message cannot be empty")
	}

	var message models.Message
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var chat models.Chat
		if err := tx.First(&chat, chatID).Error; err != nil {
			return err
		}
		if !chat.HasParticipant(author.ID) {
			return apperr.Forbidden("you do not have access to this chat")
		}

		message = models.Message{ChatID: chat.ID, AuthorID: author.ID, Content: content}
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		return tx.Model(&models.Chat{}).Where("id = ?", chat.ID).Update("updated_at", time.Now()).Error
	})
	if err != nil {
		return nil, apperr.FromStore(err, "chat")
	}
	message.Author = author
	metrics.MessageSent()

	if s.events != nil {
		event := hub.Event{
			Type: hub.EventMessageCreated,
			Payload: MessageEvent{
				ID:         message.ID,
				ChatID:     message.ChatID,
				AuthorID:   author.ID,
				AuthorName: author.DisplayName(),
				Content:    message.Content,
				CreatedAt:  message.CreatedAt,
			},
		}
		if err := s.events.Broadcast(chatID, event); err != nil {
			s.log.WithError(err).WithField("chat_id", chatID).Warn("failed to publish chat message")
		}
	}
	return &message, nil
}

// ListChats returns the chats user takes part in, most recently active first.
func (s *Store) ListChats(ctx context.Context, user models.User) ([]models.Chat, error) {
	chats := make([]models.Chat, 0)
	err := s.db.WithContext(ctx).
		Preload("Listing").
		Preload("Buyer").
		Preload("Seller").
		Where("buyer_id = ? OR seller_id = ?", user.ID, user.ID).
		Order("updated_at DESC, id DESC").
		Find(&chats).Error
	if err != nil {
		return nil, apperr.FromStore(err, "chats")
	}
	return chats, nil
}

// GetChat loads a chat with its messages in posting order. Only the buyer and
// the seller may read it.
func (s *Store) GetChat(ctx context.Context, user models.User, chatID uint) (*models.Chat, error) {
	var chat models.Chat
	err := s.db.WithContext(ctx).
		Preload("Listing").
		Preload("Buyer").
		Preload("Seller").
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Messages.Author").
		First(&chat, chatID).Error
	if err != nil {
		return nil, apperr.FromStore(err, "chat")
	}
	if !chat.HasParticipant(user.ID) {
		return nil, apperr.Forbidden("you do not have access to this chat")
	}
	return &chat, nil
}

// ChatParticipant checks that user may follow chatID without loading its
// messages.
func (s *Store) ChatParticipant(ctx context.Context, user models.User, chatID uint) error {
	var chat models.Chat
	if err := s.db.WithContext(ctx).First(&chat, chatID).Error; err != nil {
		return apperr.FromStore(err, "chat")
	}
	if !chat.HasParticipant(user.ID) {
		return apperr.Forbidden("you do not have access to this chat")
	}
	return nil
}
