package handler

import (
	"net/http"
	"time"

	"bscar/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

type TicketInput struct {
	Subject string `json:"subject" form:"subject" binding:"required,max=255" example:"Cannot upload photos"`
	Message string `json:"message" form:"message" binding:"required" example:"Every upload fails with an error."`
}

type TicketReplyInput struct {
	Reply string `json:"reply" form:"reply" binding:"required" example:"Please try a smaller file."`
}

type TicketResponse struct {
	ID        uint                `json:"id" example:"1"`
	Subject   string              `json:"subject"`
	Message   string              `json:"message"`
	Reply     *string             `json:"reply,omitempty"`
	Status    string              `json:"status" example:"pending"`
	User      *PublicUserResponse `json:"user,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

func newTicketResponse(ticket models.SupportTicket) TicketResponse {
	response := TicketResponse{
		ID:        ticket.ID,
		Subject:   ticket.Subject,
		Message:   ticket.Message,
		Reply:     ticket.Reply,
		Status:    string(ticket.Status),
		CreatedAt: ticket.CreatedAt,
	}
	if ticket.User.ID != 0 {
		user := buildPublicUserResponse(ticket.User)
		response.User = &user
	}
	return response
}

// endregion

// GetTickets godoc
// @Summary      List support tickets
// @Description  Admins see every ticket with its author; other users see their own.
// @Tags         support
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} TicketResponse
// @Router       /support [get]
func (h *Handler) GetTickets(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	tickets, err := h.store.ListTickets(c.Request.Context(), user)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response := make([]TicketResponse, 0, len(tickets))
	for _, ticket := range tickets {
		response = append(response, newTicketResponse(ticket))
	}
	c.JSON(http.StatusOK, response)
}

// CreateTicket godoc
// @Summary      Open a support ticket
// @Tags         support
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body TicketInput true "Ticket"
// @Success      201 {object} TicketResponse
// @Failure      400 {object} ErrorResponse
// @Router       /support [post]
func (h *Handler) CreateTicket(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var input TicketInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	ticket, err := h.store.CreateTicket(c.Request.Context(), user, input.Subject, input.Message)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newTicketResponse(*ticket))
}

// ReplyTicket godoc
// @Summary      Answer a support ticket (Admin)
// @Description  Stores the reply and marks the ticket answered. A ticket is answered once.
// @Tags         support
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int              true "Ticket ID"
// @Param        input body TicketReplyInput true "Reply"
// @Success      200 {object} TicketResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "Ticket already answered"
// @Router       /support/{id}/reply [post]
func (h *Handler) ReplyTicket(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input TicketReplyInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	ticket, err := h.store.ReplyTicket(c.Request.Context(), user, id, input.Reply)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTicketResponse(*ticket))
}
