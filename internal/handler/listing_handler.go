package handler

import (
	"net/http"
	"time"

	"bscar/backend/internal/models"
	"bscar/backend/internal/storage"
	"bscar/backend/internal/store"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

type ImageResponse struct {
	ID               uint   `json:"id" example:"1"`
	URL              string `json:"url" example:"/uploads/listings/3_5f1c2a.png"`
	OriginalFilename string `json:"original_filename" example:"front.png"`
	IsPrimary        bool   `json:"is_primary"`
}

type ListingResponse struct {
	ID           uint               `json:"id" example:"1"`
	Title        string             `json:"title" example:"Toyota Corolla 2015"`
	Description  string             `json:"description"`
	Price        string             `json:"price" example:"8500.00"`
	Status       string             `json:"status" example:"active"`
	Owner        PublicUserResponse `json:"owner"`
	Category     *CategoryResponse  `json:"category,omitempty"`
	Images       []ImageResponse    `json:"images"`
	PrimaryImage *ImageResponse     `json:"primary_image,omitempty"`
	IsFavorited  *bool              `json:"is_favorited,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

func newImageResponse(image models.ListingImage) ImageResponse {
	return ImageResponse{
		ID:               image.ID,
		URL:              fileURL(storage.BucketListings, image.Filename),
		OriginalFilename: image.OriginalFilename,
		IsPrimary:        image.IsPrimary,
	}
}

func newListingResponse(listing models.Listing) ListingResponse {
	response := ListingResponse{
		ID:          listing.ID,
		Title:       listing.Title,
		Description: listing.Description,
		Price:       listing.Price.StringFixed(2),
		Status:      string(listing.Status),
		Owner:       buildPublicUserResponse(listing.Owner),
		Images:      make([]ImageResponse, 0, len(listing.Images)),
		CreatedAt:   listing.CreatedAt,
	}
	if listing.Category != nil {
		category := newCategoryResponse(*listing.Category)
		response.Category = &category
	}
	for _, image := range listing.Images {
		response.Images = append(response.Images, newImageResponse(image))
	}
	if primary := listing.PrimaryImage(); primary != nil {
		image := newImageResponse(*primary)
		response.PrimaryImage = &image
	}
	return response
}

// ListingFeedResponse is a page of listings plus the per-filter counts.
type ListingFeedResponse struct {
	PaginatedResponse[ListingResponse]
	Stats store.ListingStats `json:"stats"`
}

// CreatedListingResponse carries the intake warnings for skipped images.
type CreatedListingResponse struct {
	Listing  ListingResponse `json:"listing"`
	Warnings []string        `json:"warnings,omitempty"`
}

type ListingStatusInput struct {
	Status string `json:"status" binding:"required,oneof=active sold" example:"sold"`
}

type DeleteListingInput struct {
	Reason string `json:"reason" example:"Duplicate listing"`
}

type FavoriteResponse struct {
	Favorited bool `json:"favorited"`
}

type ReportInput struct {
	Reason string `json:"reason" binding:"max=255" example:"Looks like a scam"`
}

type ComplaintResponse struct {
	ID        uint      `json:"id" example:"1"`
	ListingID uint      `json:"listing_id" example:"1"`
	Reason    string    `json:"reason" example:"Reported by user"`
	Status    string    `json:"status" example:"pending"`
	CreatedAt time.Time `json:"created_at"`
}

func newComplaintResponse(complaint models.Complaint) ComplaintResponse {
	return ComplaintResponse{
		ID:        complaint.ID,
		ListingID: complaint.ListingID,
		Reason:    complaint.Reason,
		Status:    string(complaint.Status),
		CreatedAt: complaint.CreatedAt,
	}
}

// endregion

// region --- Listing Handlers ---

// GetListings godoc
// @Summary      Browse listings
// @Description  Gets a paginated list of listings, newest first, with per-filter counts.
// @Tags         listings
// @Produce      json
// @Security     BearerAuth
// @Param        category query string false "Filter" Enums(all, new, used)
// @Param        search   query string false "Case-insensitive title search"
// @Param        page     query int    false "Page number" default(1)
// @Param        limit    query int    false "Items per page" default(20)
// @Success      200 {object} ListingFeedResponse
// @Failure      400 {object} ErrorResponse "Unknown category filter"
// @Router       /listings [get]
func (h *Handler) GetListings(c *gin.Context) {
	page, limit := pageParams(c)
	filter := store.ListingFilter{
		Category: c.DefaultQuery("category", store.FilterAll),
		Search:   c.Query("search"),
		Page:     page,
		Limit:    limit,
	}

	listings, err := h.store.ListListings(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	stats, err := h.store.ListingStats(c.Request.Context(), filter.Search)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListingFeedResponse{
		PaginatedResponse: paginated(listings, newListingResponse),
		Stats:             stats,
	})
}

// GetMyListings godoc
// @Summary      List my listings
// @Description  Gets the current user's listings, newest first.
// @Tags         listings
// @Produce      json
// @Security     BearerAuth
// @Param        page  query int false "Page number" default(1)
// @Param        limit query int false "Items per page" default(20)
// @Success      200 {object} PaginatedResponse[ListingResponse]
// @Router       /listings/mine [get]
func (h *Handler) GetMyListings(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	page, limit := pageParams(c)

	listings, err := h.store.ListListings(c.Request.Context(), store.ListingFilter{
		OwnerID: &user.ID,
		Page:    page,
		Limit:   limit,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paginated(listings, newListingResponse))
}

// CreateListing godoc
// @Summary      Create a listing
// @Description  Creates an active listing. Images that fail the checks are skipped and reported as warnings.
// @Tags         listings
// @Accept       mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        title       formData string true  "Title"
// @Param        price       formData string true  "Price" example(8500.00)
// @Param        description formData string false "Description"
// @Param        category_id formData int    false "Category ID"
// @Param        images      formData file   false "Images (repeatable)"
// @Success      201 {object} CreatedListingResponse
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse "Category not found"
// @Router       /listings [post]
func (h *Handler) CreateListing(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	categoryID, err := parseOptionalID(c.PostForm("category_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	uploads, err := formUploads(c, "images")
	if err != nil {
		h.respondError(c, err)
		return
	}

	listing, warnings, err := h.store.CreateListing(c.Request.Context(), user, store.ListingInput{
		Title:       c.PostForm("title"),
		Price:       c.PostForm("price"),
		Description: c.PostForm("description"),
		CategoryID:  categoryID,
	}, uploads)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreatedListingResponse{
		Listing:  newListingResponse(*listing),
		Warnings: warnings,
	})
}

// GetListingByID godoc
// @Summary      Get a listing
// @Description  Gets a listing with owner, category and images, and whether the caller has favorited it.
// @Tags         listings
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Listing ID"
// @Success      200 {object} ListingResponse
// @Failure      404 {object} ErrorResponse
// @Router       /listings/{id} [get]
func (h *Handler) GetListingByID(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	listing, err := h.store.GetListing(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	favorited, err := h.store.IsFavorited(c.Request.Context(), user.ID, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response := newListingResponse(*listing)
	response.IsFavorited = &favorited
	c.JSON(http.StatusOK, response)
}

// SetListingStatus godoc
// @Summary      Change listing status
// @Description  Marks a listing active or sold. Owner only.
// @Tags         listings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int                true "Listing ID"
// @Param        input body ListingStatusInput true "New status"
// @Success      200 {object} ListingResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /listings/{id}/status [patch]
func (h *Handler) SetListingStatus(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input ListingStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if _, err := h.store.SetListingStatus(c.Request.Context(), user, id, models.ListingStatus(input.Status)); err != nil {
		h.respondError(c, err)
		return
	}
	listing, err := h.store.GetListing(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newListingResponse(*listing))
}

// DeleteListing godoc
// @Summary      Delete a listing
// @Description  Deletes a listing with its chats, messages, complaints, favorites and images. Owner or admin.
// @Tags         listings
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Listing ID"
// @Success      200 {object} StatusResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /listings/{id} [delete]
func (h *Handler) DeleteListing(c *gin.Context) {
	h.deleteListing(c, "")
}

// deleteListing is shared by the owner and admin routes; the admin route may
// carry a reason for the moderation log.
func (h *Handler) deleteListing(c *gin.Context, reason string) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.store.DeleteListing(c.Request.Context(), user, id, reason); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StatusResponse{Message: "Listing deleted"})
}

// endregion

// region --- Favorites & Reports ---

// ToggleFavorite godoc
// @Summary      Toggle favorite
// @Description  Adds the listing to the caller's favorites, or removes it if already there.
// @Tags         favorites
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Listing ID"
// @Success      200 {object} FavoriteResponse
// @Failure      404 {object} ErrorResponse
// @Router       /listings/{id}/favorite [post]
func (h *Handler) ToggleFavorite(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	favorited, err := h.store.ToggleFavorite(c.Request.Context(), user, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, FavoriteResponse{Favorited: favorited})
}

// GetFavorites godoc
// @Summary      List favorites
// @Description  Gets the caller's favorite listings, most recently favorited first.
// @Tags         favorites
// @Produce      json
// @Security     BearerAuth
// @Param        page  query int false "Page number" default(1)
// @Param        limit query int false "Items per page" default(20)
// @Success      200 {object} PaginatedResponse[ListingResponse]
// @Router       /favorites [get]
func (h *Handler) GetFavorites(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	page, limit := pageParams(c)

	favorites, err := h.store.ListFavorites(c.Request.Context(), user, page, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paginated(favorites, newListingResponse))
}

// ReportListing godoc
// @Summary      Report a listing
// @Description  Files a complaint against a listing. One per user and listing.
// @Tags         listings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int         true  "Listing ID"
// @Param        input body ReportInput false "Reason"
// @Success      201 {object} ComplaintResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "Already reported or own listing"
// @Router       /listings/{id}/report [post]
func (h *Handler) ReportListing(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input ReportInput
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
	}

	complaint, err := h.store.FileComplaint(c.Request.Context(), user, id, input.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newComplaintResponse(*complaint))
}

// endregion
