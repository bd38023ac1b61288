package handler

import (
	"net/http"
	"strconv"
	"time"

	"bscar/backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

// region --- DTOs ---

type PromoteInput struct {
	Email string `json:"email" form:"email" binding:"required,email" example:"anna@example.com"`
}

type BlockInput struct {
	Email  string `json:"email" form:"email" binding:"required,email" example:"spammer@example.com"`
	Reason string `json:"reason" form:"reason" binding:"required" example:"Spam listings"`
}

type AdminDeleteInput struct {
	Reason string `json:"reason" form:"reason" example:"Prohibited item"`
}

// RoleChangeResponse reports the target's role after a promote or block.
// Changed is false when the target already had that role.
type RoleChangeResponse struct {
	User    PrivateUserResponse `json:"user"`
	Changed bool                `json:"changed"`
}

type AdminComplaintResponse struct {
	ComplaintResponse
	ListingTitle string             `json:"listing_title"`
	Submitter    PublicUserResponse `json:"submitter"`
}

type ModerationActionResponse struct {
	ID           uint               `json:"id" example:"1"`
	Action       string             `json:"action" example:"delete_listing"`
	Moderator    PublicUserResponse `json:"moderator"`
	ListingID    *uint              `json:"listing_id,omitempty"`
	TargetUserID *uint              `json:"target_user_id,omitempty"`
	Details      datatypes.JSONMap  `json:"details,omitempty" swaggertype:"object"`
	CreatedAt    time.Time          `json:"created_at"`
}

func newAdminComplaintResponse(complaint models.Complaint) AdminComplaintResponse {
	return AdminComplaintResponse{
		ComplaintResponse: newComplaintResponse(complaint),
		ListingTitle:      complaint.Listing.Title,
		Submitter:         buildPublicUserResponse(complaint.Submitter),
	}
}

func newModerationActionResponse(action models.ModerationAction) ModerationActionResponse {
	return ModerationActionResponse{
		ID:           action.ID,
		Action:       string(action.Action),
		Moderator:    buildPublicUserResponse(action.Moderator),
		ListingID:    action.ListingID,
		TargetUserID: action.TargetUserID,
		Details:      action.Details,
		CreatedAt:    action.CreatedAt,
	}
}

// endregion

func limitParam(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		return 0
	}
	return limit
}

// AdminGetListings godoc
// @Summary      Recent listings (Admin)
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Max items" default(20)
// @Success      200 {array} ListingResponse
// @Failure      403 {object} ErrorResponse "Admin access required"
// @Router       /admin/listings [get]
func (h *Handler) AdminGetListings(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	listings, err := h.store.RecentListings(c.Request.Context(), user, limitParam(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	response := make([]ListingResponse, 0, len(listings))
	for _, listing := range listings {
		response = append(response, newListingResponse(listing))
	}
	c.JSON(http.StatusOK, response)
}

// AdminDeleteListing godoc
// @Summary      Delete any listing (Admin)
// @Description  Deletes a listing with everything attached and records it in the moderation log.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int              true  "Listing ID"
// @Param        input body AdminDeleteInput false "Reason"
// @Success      200 {object} StatusResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /admin/listings/{id} [delete]
func (h *Handler) AdminDeleteListing(c *gin.Context) {
	var input AdminDeleteInput
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
	}
	h.deleteListing(c, input.Reason)
}

// AdminGetComplaints godoc
// @Summary      List complaints (Admin)
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "Filter by status" example(pending)
// @Success      200 {array} AdminComplaintResponse
// @Failure      403 {object} ErrorResponse
// @Router       /admin/complaints [get]
func (h *Handler) AdminGetComplaints(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	complaints, err := h.store.ListComplaints(c.Request.Context(), user, c.Query("status"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	response := make([]AdminComplaintResponse, 0, len(complaints))
	for _, complaint := range complaints {
		response = append(response, newAdminComplaintResponse(complaint))
	}
	c.JSON(http.StatusOK, response)
}

// PromoteUser godoc
// @Summary      Grant admin (Admin)
// @Description  Makes the user with the given email an admin. Blocked users cannot be promoted.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body PromoteInput true "Target"
// @Success      200 {object} RoleChangeResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "User is blocked"
// @Router       /admin/users/promote [post]
func (h *Handler) PromoteUser(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var input PromoteInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	target, changed, err := h.store.GrantAdmin(c.Request.Context(), user, input.Email)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, RoleChangeResponse{User: buildPrivateUserResponse(*target), Changed: changed})
}

// BlockUser godoc
// @Summary      Block a user (Admin)
// @Description  Blocks the user with the given email. Admins cannot be blocked.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body BlockInput true "Target and reason"
// @Success      200 {object} RoleChangeResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "Cannot block an admin"
// @Router       /admin/users/block [post]
func (h *Handler) BlockUser(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var input BlockInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	target, changed, err := h.store.BlockUser(c.Request.Context(), user, input.Email, input.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, RoleChangeResponse{User: buildPrivateUserResponse(*target), Changed: changed})
}

// AdminGetActions godoc
// @Summary      Moderation log (Admin)
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Max items" default(20)
// @Success      200 {array} ModerationActionResponse
// @Failure      403 {object} ErrorResponse
// @Router       /admin/actions [get]
func (h *Handler) AdminGetActions(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	actions, err := h.store.ListModerationActions(c.Request.Context(), user, limitParam(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	response := make([]ModerationActionResponse, 0, len(actions))
	for _, action := range actions {
		response = append(response, newModerationActionResponse(action))
	}
	c.JSON(http.StatusOK, response)
}
