package handler

import (
	"fmt"
	"net/http"
	"testing"

	"bscar/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromoteAndBlock(t *testing.T) {
	api := newTestAPI(t)
	admin := api.createUser(t, "admin@example.com", models.RoleAdmin)
	_ = api.createUser(t, "user@example.com", models.RoleUser)
	other := api.createUser(t, "other@example.com", models.RoleUser)

	w := api.do(t, &admin, http.MethodPost, "/api/v1/admin/users/promote", gin.H{"email": "user@example.com"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	promoted := decode[RoleChangeResponse](t, w)
	assert.True(t, promoted.Changed)
	assert.Equal(t, models.RoleAdmin, promoted.User.Role)

	w = api.do(t, &admin, http.MethodPost, "/api/v1/admin/users/promote", gin.H{"email": "user@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[RoleChangeResponse](t, w).Changed)

	w = api.do(t, &admin, http.MethodPost, "/api/v1/admin/users/block", gin.H{"email": "user@example.com", "reason": "test"})
	assert.Equal(t, http.StatusConflict, w.Code, "admins cannot be blocked")

	w = api.do(t, &admin, http.MethodPost, "/api/v1/admin/users/block", gin.H{"email": "other@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "reason is required")

	w = api.do(t, &admin, http.MethodPost, "/api/v1/admin/users/block", gin.H{"email": "other@example.com", "reason": "spam"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RoleBlocked, decode[RoleChangeResponse](t, w).User.Role)

	assert.Equal(t, http.StatusForbidden, api.do(t, &other, http.MethodGet, "/api/v1/users/me", nil).Code)

	w = api.do(t, &admin, http.MethodPost, "/api/v1/admin/users/promote", gin.H{"email": "other@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code, "blocked users stay blocked")

	w = api.do(t, &admin, http.MethodPost, "/api/v1/admin/users/promote", gin.H{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, &admin, http.MethodGet, "/api/v1/admin/actions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	actions := decode[[]ModerationActionResponse](t, w)
	require.Len(t, actions, 2)
	assert.Equal(t, string(models.ActionBlockUser), actions[0].Action)
	assert.Equal(t, string(models.ActionGrantAdmin), actions[1].Action)
	assert.Equal(t, admin.ID, actions[0].Moderator.ID)
}

func TestAdminListings(t *testing.T) {
	api := newTestAPI(t)
	admin := api.createUser(t, "admin@example.com", models.RoleAdmin)
	seller := api.createUser(t, "seller@example.com", models.RoleUser)
	for i := 0; i < 3; i++ {
		api.postListing(t, seller, map[string]string{"title": fmt.Sprintf("Car %d", i), "price": "10"})
	}

	w := api.do(t, &admin, http.MethodGet, "/api/v1/admin/listings?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	listings := decode[[]ListingResponse](t, w)
	require.Len(t, listings, 2)
	assert.Equal(t, "Car 2", listings[0].Title)
}

func TestCategories(t *testing.T) {
	api := newTestAPI(t)
	admin := api.createUser(t, "admin@example.com", models.RoleAdmin)
	user := api.createUser(t, "user@example.com", models.RoleUser)

	w := api.do(t, &admin, http.MethodPost, "/api/v1/admin/categories", gin.H{"name": "Vehicles"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	root := decode[CategoryResponse](t, w)

	w = api.do(t, &admin, http.MethodPost, "/api/v1/admin/categories", gin.H{"name": "Cars", "parent_id": root.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	child := decode[CategoryResponse](t, w)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, root.ID, *child.ParentID)

	assert.Equal(t, http.StatusConflict, api.do(t, &admin, http.MethodPost, "/api/v1/admin/categories", gin.H{"name": "Cars"}).Code)
	assert.Equal(t, http.StatusForbidden, api.do(t, &user, http.MethodPost, "/api/v1/admin/categories", gin.H{"name": "Boats"}).Code)

	w = api.do(t, &admin, http.MethodPut, fmt.Sprintf("/api/v1/admin/categories/%d/parent", root.ID), gin.H{"parent_id": child.ID})
	assert.Equal(t, http.StatusConflict, w.Code, "cycles are rejected")

	w = api.do(t, &admin, http.MethodPut, fmt.Sprintf("/api/v1/admin/categories/%d/parent", child.ID), gin.H{"parent_id": nil})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Nil(t, decode[CategoryResponse](t, w).ParentID)

	w = api.do(t, &user, http.MethodGet, "/api/v1/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	categories := decode[[]CategoryResponse](t, w)
	require.Len(t, categories, 2)
	assert.Equal(t, "Cars", categories[0].Name)
}

func TestSupportTickets(t *testing.T) {
	api := newTestAPI(t)
	admin := api.createUser(t, "admin@example.com", models.RoleAdmin)
	user := api.createUser(t, "user@example.com", models.RoleUser)
	other := api.createUser(t, "other@example.com", models.RoleUser)

	assert.Equal(t, http.StatusBadRequest, api.do(t, &user, http.MethodPost, "/api/v1/support", gin.H{"subject": "Help"}).Code)

	w := api.do(t, &user, http.MethodPost, "/api/v1/support", gin.H{"subject": "Help", "message": "Uploads fail"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ticket := decode[TicketResponse](t, w)
	assert.Equal(t, "pending", ticket.Status)

	w = api.do(t, &other, http.MethodGet, "/api/v1/support", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]TicketResponse](t, w))

	replyPath := fmt.Sprintf("/api/v1/support/%d/reply", ticket.ID)
	assert.Equal(t, http.StatusForbidden, api.do(t, &user, http.MethodPost, replyPath, gin.H{"reply": "self help"}).Code)

	w = api.do(t, &admin, http.MethodPost, replyPath, gin.H{"reply": "Try a smaller file"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	answered := decode[TicketResponse](t, w)
	assert.Equal(t, "answered", answered.Status)
	require.NotNil(t, answered.Reply)
	assert.Equal(t, "Try a smaller file", *answered.Reply)

	assert.Equal(t, http.StatusConflict, api.do(t, &admin, http.MethodPost, replyPath, gin.H{"reply": "again"}).Code)

	w = api.do(t, &admin, http.MethodGet, "/api/v1/support", nil)
	require.Equal(t, http.StatusOK, w.Code)
	all := decode[[]TicketResponse](t, w)
	require.Len(t, all, 1)
	require.NotNil(t, all[0].User)
	assert.Equal(t, user.ID, all[0].User.ID)
}
