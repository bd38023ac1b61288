package handler

import (
	"io"
	"net/http"
	"time"

	"bscar/backend/internal/hub"
	"bscar/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// heartbeatInterval keeps idle event streams open through proxies.
const heartbeatInterval = 25 * time.Second

// region --- DTOs ---

type MessageInput struct {
	Content string `json:"content" binding:"required,max=4000" example:"Is it still available?"`
}

type MessageResponse struct {
	ID        uint               `json:"id" example:"1"`
	ChatID    uint               `json:"chat_id" example:"1"`
	Author    PublicUserResponse `json:"author"`
	Content   string             `json:"content" example:"Is it still available?"`
	CreatedAt time.Time          `json:"created_at"`
}

type ChatListingResponse struct {
	ID    uint   `json:"id" example:"1"`
	Title string `json:"title" example:"Toyota Corolla 2015"`
}

// ChatResponse describes a chat from the viewer's side.
type ChatResponse struct {
	ID        uint                `json:"id" example:"1"`
	Listing   ChatListingResponse `json:"listing"`
	Buyer     PublicUserResponse  `json:"buyer"`
	Seller    PublicUserResponse  `json:"seller"`
	Peer      PublicUserResponse  `json:"peer"`
	UpdatedAt time.Time           `json:"updated_at"`
}

type ChatDetailResponse struct {
	ChatResponse
	Messages []MessageResponse `json:"messages"`
}

type ContactResponse struct {
	Chat    ChatDetailResponse `json:"chat"`
	Created bool               `json:"created"`
}

func newMessageResponse(message models.Message) MessageResponse {
	return MessageResponse{
		ID:        message.ID,
		ChatID:    message.ChatID,
		Author:    buildPublicUserResponse(message.Author),
		Content:   message.Content,
		CreatedAt: message.CreatedAt,
	}
}

func newChatResponse(chat models.Chat, viewerID uint) ChatResponse {
	return ChatResponse{
		ID:        chat.ID,
		Listing:   ChatListingResponse{ID: chat.ListingID, Title: chat.Listing.Title},
		Buyer:     buildPublicUserResponse(chat.Buyer),
		Seller:    buildPublicUserResponse(chat.Seller),
		Peer:      buildPublicUserResponse(chat.Counterpart(viewerID)),
		UpdatedAt: chat.UpdatedAt,
	}
}

func newChatDetailResponse(chat models.Chat, viewerID uint) ChatDetailResponse {
	messages := make([]MessageResponse, 0, len(chat.Messages))
	for _, message := range chat.Messages {
		messages = append(messages, newMessageResponse(message))
	}
	return ChatDetailResponse{
		ChatResponse: newChatResponse(chat, viewerID),
		Messages:     messages,
	}
}

// endregion

// ContactSeller godoc
// @Summary      Contact the seller
// @Description  Opens the chat about a listing with its owner, or returns the existing one.
// @Tags         chats
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Listing ID"
// @Success      200 {object} ContactResponse "Existing chat"
// @Success      201 {object} ContactResponse "New chat"
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "Cannot contact yourself"
// @Router       /listings/{id}/contact [post]
func (h *Handler) ContactSeller(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	listingID, ok := parseID(c, "id")
	if !ok {
		return
	}

	chat, created, err := h.store.OpenOrReuseChat(c.Request.Context(), user, listingID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	detail, err := h.store.GetChat(c.Request.Context(), user, chat.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, ContactResponse{Chat: newChatDetailResponse(*detail, user.ID), Created: created})
}

// GetChats godoc
// @Summary      List my chats
// @Description  Gets the chats the caller takes part in, most recently active first.
// @Tags         chats
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} ChatResponse
// @Router       /chats [get]
func (h *Handler) GetChats(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	chats, err := h.store.ListChats(c.Request.Context(), user)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response := make([]ChatResponse, 0, len(chats))
	for _, chat := range chats {
		response = append(response, newChatResponse(chat, user.ID))
	}
	c.JSON(http.StatusOK, response)
}

// GetChatByID godoc
// @Summary      Get a chat
// @Description  Gets a chat with all its messages in posting order. Participants only.
// @Tags         chats
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Chat ID"
// @Success      200 {object} ChatDetailResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /chats/{id} [get]
func (h *Handler) GetChatByID(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	chatID, ok := parseID(c, "id")
	if !ok {
		return
	}

	chat, err := h.store.GetChat(c.Request.Context(), user, chatID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newChatDetailResponse(*chat, user.ID))
}

// PostMessage godoc
// @Summary      Send a message
// @Description  Appends a message to a chat and notifies listening participants.
// @Tags         chats
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int          true "Chat ID"
// @Param        input body MessageInput true "Message"
// @Success      201 {object} MessageResponse
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      429 {object} ErrorResponse
// @Router       /chats/{id}/messages [post]
func (h *Handler) PostMessage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	chatID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input MessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	message, err := h.store.AppendMessage(c.Request.Context(), chatID, user, input.Content)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newMessageResponse(*message))
}

// StreamChatEvents godoc
// @Summary      Follow a chat
// @Description  Streams new messages of a chat as server-sent events. Participants only.
// @Tags         chats
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        id path int true "Chat ID"
// @Success      200 {string} string "message.created events"
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /chats/{id}/events [get]
func (h *Handler) StreamChatEvents(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	chatID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.store.ChatParticipant(c.Request.Context(), user, chatID); err != nil {
		h.respondError(c, err)
		return
	}

	client := hub.NewClient()
	h.events.Subscribe(chatID, client)
	defer h.events.Unsubscribe(chatID, client)

	entry := h.log.WithFields(logrus.Fields{"chat_id": chatID, "user_id": user.ID})
	entry.Debug("chat stream opened")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	done := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-done:
			return false
		case msg, ok := <-client:
			if !ok {
				return false
			}
			c.SSEvent(hub.EventMessageCreated, string(msg))
			return true
		case <-heartbeat.C:
			_, err := io.WriteString(w, ": keepalive\n\n")
			return err == nil
		}
	})
	entry.Debug("chat stream closed")
}
