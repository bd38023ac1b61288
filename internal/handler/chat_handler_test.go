package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bscar/backend/internal/hub"
	"bscar/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactAndMessages(t *testing.T) {
	api := newTestAPI(t)
	seller := api.createUser(t, "seller@example.com", models.RoleUser)
	buyer := api.createUser(t, "buyer@example.com", models.RoleUser)
	outsider := api.createUser(t, "outsider@example.com", models.RoleUser)
	listing := api.postListing(t, seller, map[string]string{"title": "Car", "price": "100"}).Listing
	contactPath := fmt.Sprintf("/api/v1/listings/%d/contact", listing.ID)

	assert.Equal(t, http.StatusConflict, api.do(t, &seller, http.MethodPost, contactPath, nil).Code)

	w := api.do(t, &buyer, http.MethodPost, contactPath, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	contact := decode[ContactResponse](t, w)
	assert.True(t, contact.Created)
	assert.Equal(t, seller.ID, contact.Chat.Peer.ID)
	assert.Equal(t, "Car", contact.Chat.Listing.Title)

	w = api.do(t, &buyer, http.MethodPost, contactPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, contact.Chat.ID, decode[ContactResponse](t, w).Chat.ID)

	messagesPath := fmt.Sprintf("/api/v1/chats/%d/messages", contact.Chat.ID)
	assert.Equal(t, http.StatusBadRequest, api.do(t, &buyer, http.MethodPost, messagesPath, gin.H{"content": ""}).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(t, &buyer, http.MethodPost, messagesPath, gin.H{"content": "   "}).Code)
	assert.Equal(t, http.StatusForbidden, api.do(t, &outsider, http.MethodPost, messagesPath, gin.H{"content": "hi"}).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, &buyer, http.MethodPost, "/api/v1/chats/999/messages", gin.H{"content": "hi"}).Code)

	w = api.do(t, &buyer, http.MethodPost, messagesPath, gin.H{"content": "Still available?"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, buyer.ID, decode[MessageResponse](t, w).Author.ID)
	w = api.do(t, &seller, http.MethodPost, messagesPath, gin.H{"content": "Yes"})
	require.Equal(t, http.StatusCreated, w.Code)

	chatPath := fmt.Sprintf("/api/v1/chats/%d", contact.Chat.ID)
	assert.Equal(t, http.StatusForbidden, api.do(t, &outsider, http.MethodGet, chatPath, nil).Code)

	w = api.do(t, &seller, http.MethodGet, chatPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[ChatDetailResponse](t, w)
	assert.Equal(t, buyer.ID, detail.Peer.ID)
	require.Len(t, detail.Messages, 2)
	assert.Equal(t, "Still available?", detail.Messages[0].Content)
	assert.Equal(t, "Yes", detail.Messages[1].Content)

	for _, user := range []models.User{buyer, seller} {
		w = api.do(t, &user, http.MethodGet, "/api/v1/chats", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]ChatResponse](t, w), 1)
	}
	w = api.do(t, &outsider, http.MethodGet, "/api/v1/chats", nil)
	assert.Empty(t, decode[[]ChatResponse](t, w))
}

func TestStreamChatEvents(t *testing.T) {
	api := newTestAPI(t)
	seller := api.createUser(t, "seller@example.com", models.RoleUser)
	buyer := api.createUser(t, "buyer@example.com", models.RoleUser)
	outsider := api.createUser(t, "outsider@example.com", models.RoleUser)
	listing := api.postListing(t, seller, map[string]string{"title": "Car", "price": "100"}).Listing

	chat, _, err := api.store.OpenOrReuseChat(context.Background(), buyer, listing.ID)
	require.NoError(t, err)
	eventsPath := fmt.Sprintf("/api/v1/chats/%d/events", chat.ID)

	assert.Equal(t, http.StatusForbidden, api.do(t, &outsider, http.MethodGet, eventsPath, nil).Code)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, eventsPath, nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, seller))
	w := createTestResponseRecorder()

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		api.router.ServeHTTP(w, req)
	}()

	require.Eventually(t, func() bool {
		return api.events.Subscribers(chat.ID) == 1
	}, 2*time.Second, 10*time.Millisecond)

	_, err = api.store.AppendMessage(context.Background(), chat.ID, buyer, "hello seller")
	require.NoError(t, err)

	// Give the stream a moment to write the event before hanging up.
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop after the client went away")
	}

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "event:"+hub.EventMessageCreated), body)
	assert.Contains(t, body, "hello seller")
	assert.Zero(t, api.events.Subscribers(chat.ID))
}

// testResponseRecorder mirrors gin's own test helper (defined only in gin's
// test files): an httptest.ResponseRecorder that implements http.CloseNotifier,
// which gin's Context.Stream requires.
type testResponseRecorder struct {
	*httptest.ResponseRecorder
	closeChannel chan bool
}

func (r *testResponseRecorder) CloseNotify() <-chan bool {
	return r.closeChannel
}

func createTestResponseRecorder() *testResponseRecorder {
	return &testResponseRecorder{httptest.NewRecorder(), make(chan bool, 1)}
}
