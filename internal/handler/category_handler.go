package handler

import (
	"net/http"

	"bscar/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

type CategoryInput struct {
	Name     string `json:"name" binding:"required,max=120" example:"Sedans"`
	ParentID *uint  `json:"parent_id" example:"1"`
}

type CategoryParentInput struct {
	ParentID *uint `json:"parent_id" example:"1"`
}

type CategoryResponse struct {
	ID       uint   `json:"id" example:"1"`
	Name     string `json:"name" example:"New"`
	ParentID *uint  `json:"parent_id,omitempty"`
}

func newCategoryResponse(category models.Category) CategoryResponse {
	return CategoryResponse{
		ID:       category.ID,
		Name:     category.Name,
		ParentID: category.ParentID,
	}
}

// endregion

// GetCategories godoc
// @Summary      List categories
// @Description  Gets every category ordered by name.
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   CategoryResponse
// @Router       /categories [get]
func (h *Handler) GetCategories(c *gin.Context) {
	categories, err := h.store.ListCategories(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	response := make([]CategoryResponse, 0, len(categories))
	for _, category := range categories {
		response = append(response, newCategoryResponse(category))
	}
	c.JSON(http.StatusOK, response)
}

// CreateCategory godoc
// @Summary      Create a category (Admin)
// @Description  Creates a new category, optionally under a parent.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body CategoryInput true "Category"
// @Success      201  {object}  CategoryResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Category already exists"
// @Router       /admin/categories [post]
func (h *Handler) CreateCategory(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var input CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	category, err := h.store.CreateCategory(c.Request.Context(), user, input.Name, input.ParentID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newCategoryResponse(*category))
}

// SetCategoryParent godoc
// @Summary      Move a category (Admin)
// @Description  Changes the parent of a category. A null parent makes it a root. Cycles are rejected.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int                 true "Category ID"
// @Param        input body CategoryParentInput true "New parent"
// @Success      200  {object}  CategoryResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Cycle in category tree"
// @Router       /admin/categories/{id}/parent [put]
func (h *Handler) SetCategoryParent(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input CategoryParentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	category, err := h.store.SetCategoryParent(c.Request.Context(), user, id, input.ParentID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCategoryResponse(*category))
}
