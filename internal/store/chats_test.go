package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"bscar/backend/internal/apperr"
	"bscar/backend/internal/hub"
	"bscar/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestOpenOrReuseChat(t *testing.T) {
	env := newTestStore(t)
	ctx := context.Background()
	seller := env.createUser(t, "seller@example.com", models.RoleUser)
	buyer := env.createUser(t, "buyer@example.com", models.RoleUser)
	listing := env.createListing(t, seller, "Car")

	_, _, err := env.store.OpenOrReuseChat(ctx, seller, listing.ID)
	assertKind(t, err, apperr.KindDomain)
	assert.Equal(t, int64(0), env.count(t, &models.Chat{}))

	_, _, err = env.store.OpenOrReuseChat(ctx, buyer, 999)
	assertKind(t, err, apperr.KindNotFound)

	chat, created, err := env.store.OpenOrReuseChat(ctx, buyer, listing.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, buyer.ID, chat.BuyerID)
	assert.Equal(t, seller.ID, chat.SellerID)

	again, created, err := env.store.OpenOrReuseChat(ctx, buyer, listing.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, chat.ID, again.ID)
	assert.Equal(t, int64(1), env.count(t, &models.Chat{}))
}

func TestOpenOrReuseChatLosesInsertRace(t *testing.T) {
	env := newTestStore(t)
	seller := env.createUser(t, "seller@example.com", models.RoleUser)
	buyer := env.createUser(t, "buyer@example.com", models.RoleUser)
	listing := env.createListing(t, seller, "Car")

	// Another request creates the same chat between our lookup and insert.
	var rival models.Chat
	raced := false
	err := env.db.Callback().Create().Before("gorm:create").Register("rival_first_contact", func(tx *gorm.DB) {
		if _, ok := tx.Statement.Dest.(*models.Chat); !ok || raced {
			return
		}
		raced = true
		rival = models.Chat{ListingID: listing.ID, BuyerID: buyer.ID, SellerID: seller.ID}
		require.NoError(t, env.db.Create(&rival).Error)
	})
	require.NoError(t, err)

	chat, created, err := env.store.OpenOrReuseChat(context.Background(), buyer, listing.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, rival.ID, chat.ID)
	assert.Equal(t, int64(1), env.count(t, &models.Chat{}))
}

func TestAppendMessage(t *testing.T) {
	env := newTestStore(t)
	ctx := context.Background()
	seller := env.createUser(t, "seller@example.com", models.RoleUser)
	buyer := env.createUser(t, "buyer@example.com", models.RoleUser)
	outsider := env.createUser(t, "outsider@example.com", models.RoleUser)
	listing := env.createListing(t, seller, "Car")

	chat, _, err := env.store.OpenOrReuseChat(ctx, buyer, listing.ID)
	require.NoError(t, err)

	for _, content := range []string{"", "   ", "\n\t"} {
		_, err := env.store.AppendMessage(ctx, chat.ID, buyer, content)
		assertKind(t, err, apperr.KindValidation)
	}
	assert.Equal(t, int64(0), env.count(t, &models.Message{}))

	_, err = env.store.AppendMessage(ctx, chat.ID, outsider, "hello")
	assertKind(t, err, apperr.KindAuthorization)
	_, err = env.store.AppendMessage(ctx, 999, buyer, "hello")
	assertKind(t, err, apperr.KindNotFound)
	assert.Equal(t, int64(0), env.count(t, &models.Message{}))

	client := hub.NewClient()
	env.events.Subscribe(chat.ID, client)
	defer env.events.Unsubscribe(chat.ID, client)

	time.Sleep(5 * time.Millisecond)
	msg, err := env.store.AppendMessage(ctx, chat.ID, buyer, "  is it available?  ")
	require.NoError(t, err)
	assert.Equal(t, "is it available?", msg.Content)

	var bumped models.Chat
	require.NoError(t, env.db.First(&bumped, chat.ID).Error)
	assert.True(t, bumped.UpdatedAt.After(chat.UpdatedAt))

	select {
	case raw := <-client:
		var event struct {
			Type    string       `json:"type"`
			Payload MessageEvent `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(raw, &event))
		assert.Equal(t, hub.EventMessageCreated, event.Type)
		assert.Equal(t, msg.ID, event.Payload.ID)
		assert.Equal(t, "is it available?", event.Payload.Content)
	default:
		t.Fatal("message was not published")
	}
}

func TestListAndGetChats(t *testing.T) {
	env := newTestStore(t)
	ctx := context.Background()
	seller := env.createUser(t, "seller@example.com", models.RoleUser)
	buyer := env.createUser(t, "buyer@example.com", models.RoleUser)
	outsider := env.createUser(t, "outsider@example.com", models.RoleUser)
	car := env.createListing(t, seller, "Car")
	bike := env.createListing(t, seller, "Bike")

	carChat, _, err := env.store.OpenOrReuseChat(ctx, buyer, car.ID)
	require.NoError(t, err)
	bikeChat, _, err := env.store.OpenOrReuseChat(ctx, buyer, bike.ID)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = env.store.AppendMessage(ctx, carChat.ID, buyer, "first")
	require.NoError(t, err)
	_, err = env.store.AppendMessage(ctx, carChat.ID, seller, "second")
	require.NoError(t, err)

	chats, err := env.store.ListChats(ctx, seller)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, carChat.ID, chats[0].ID, "most recently active first")
	assert.Equal(t, bikeChat.ID, chats[1].ID)
	assert.Equal(t, "Car", chats[0].Listing.Title)
	assert.Equal(t, buyer.Email, chats[0].Counterpart(seller.ID).Email)

	none, err := env.store.ListChats(ctx, outsider)
	require.NoError(t, err)
	assert.Empty(t, none)

	detail, err := env.store.GetChat(ctx, buyer, carChat.ID)
	require.NoError(t, err)
	require.Len(t, detail.Messages, 2)
	assert.Equal(t, "first", detail.Messages[0].Content)
	assert.Equal(t, "second", detail.Messages[1].Content)
	assert.Equal(t, seller.Email, detail.Messages[1].Author.Email)

	_, err = env.store.GetChat(ctx, outsider, carChat.ID)
	assertKind(t, err, apperr.KindAuthorization)
	assertKind(t, env.store.ChatParticipant(ctx, outsider, carChat.ID), apperr.KindAuthorization)
	assert.NoError(t, env.store.ChatParticipant(ctx, seller, carChat.ID))
}
