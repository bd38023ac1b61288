package store

import (
	"context"
	"testing"

	"bscar/backend/internal/apperr"
	"bscar/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrantAdmin(t *testing.T) {
	env := newTestStore(t)
	ctx := context.Background()
	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)
	user := env.createUser(t, "user@example.com", models.RoleUser)
	blocked := env.createUser(t, "blocked@example.com", models.RoleBlocked)

	_, _, err := env.store.GrantAdmin(ctx, user, admin.Email)
	assertKind(t, err, apperr.KindAuthorization)

	_, _, err = env.store.GrantAdmin(ctx, admin, "nobody@example.com")
	assertKind(t, err, apperr.KindNotFound)

	target, changed, err := env.store.GrantAdmin(ctx, admin, "  USER@example.com ")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.RoleAdmin, target.Role)

	_, changed, err = env.store.GrantAdmin(ctx, admin, user.Email)
	require.NoError(t, err)
	assert.False(t, changed, "already admin is a no-op")

	_, _, err = env.store.GrantAdmin(ctx, admin, blocked.Email)
	assertKind(t, err, apperr.KindDomain)
	reloaded, err := env.store.GetUser(ctx, blocked.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleBlocked, reloaded.Role)

	assert.Equal(t, int64(1), env.count(t, &models.ModerationAction{}))
}

func TestBlockUser(t *testing.T) {
	env := newTestStore(t)
	ctx := context.Background()
	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)
	otherAdmin := env.createUser(t, "boss@example.com", models.RoleAdmin)
	user := env.createUser(t, "user@example.com", models.RoleUser)

	_, _, err := env.store.BlockUser(ctx, user, otherAdmin.Email, "spam")
	assertKind(t, err, apperr.KindAuthorization)

	_, _, err = env.store.BlockUser(ctx, admin, user.Email, "  ")
	assertKind(t, err, apperr.KindValidation)

	_, _, err = env.store.BlockUser(ctx, admin, otherAdmin.Email, "spam")
	assertKind(t, err, apperr.KindDomain)
	reloaded, err := env.store.GetUser(ctx, otherAdmin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, reloaded.Role, "admin role unchanged")

	target, changed, err := env.store.BlockUser(ctx, admin, user.Email, "spam")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.RoleBlocked, target.Role)

	_, changed, err = env.store.BlockUser(ctx, admin, user.Email, "spam again")
	require.NoError(t, err)
	assert.False(t, changed)

	actions, err := env.store.ListModerationActions(ctx, admin, 10)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, models.ActionBlockUser, actions[0].Action)
	assert.Equal(t, "spam", actions[0].Details["reason"])
	assert.Equal(t, admin.Email, actions[0].Moderator.Email)

	_, err = env.store.ListModerationActions(ctx, user, 10)
	assertKind(t, err, apperr.KindAuthorization)
}

func TestFileComplaint(t *testing.T) {
	env := newTestStore(t)
	ctx := context.Background()
	seller := env.createUser(t, "seller@example.com", models.RoleUser)
	buyer := env.createUser(t, "buyer@example.com", models.RoleUser)
	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)
	car := env.createListing(t, seller, "Car")
	bike := env.createListing(t, seller, "Bike")

	_, err := env.store.FileComplaint(ctx, seller, car.ID, "mine")
	assertKind(t, err, apperr.KindDomain)

	_, err = env.store.FileComplaint(ctx, buyer, 999, "")
	assertKind(t, err, apperr.KindNotFound)

	complaint, err := env.store.FileComplaint(ctx, buyer, car.ID, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultComplaintReason, complaint.Reason)
	assert.Equal(t, models.ComplaintPending, complaint.Status)

	_, err = env.store.FileComplaint(ctx, buyer, car.ID, "again")
	assertKind(t, err, apperr.KindDomain)

	_, err = env.store.FileComplaint(ctx, buyer, bike.ID, "fake photos")
	require.NoError(t, err)

	_, err = env.store.ListComplaints(ctx, buyer, "")
	assertKind(t, err, apperr.KindAuthorization)

	complaints, err := env.store.ListComplaints(ctx, admin, string(models.ComplaintPending))
	require.NoError(t, err)
	require.Len(t, complaints, 2)
	assert.Equal(t, "fake photos", complaints[0].Reason)
	assert.Equal(t, "Bike", complaints[0].Listing.Title)
	assert.Equal(t, buyer.Email, complaints[0].Submitter.Email)
}

func TestRecentListingsAdminOnly(t *testing.T) {
	env := newTestStore(t)
	ctx := context.Background()
	seller := env.createUser(t, "seller@example.com", models.RoleUser)
	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)
	for _, title := range []string{"A", "B", "C"} {
		env.createListing(t, seller, title)
	}

	_, err := env.store.RecentListings(ctx, seller, 2)
	assertKind(t, err, apperr.KindAuthorization)

	listings, err := env.store.RecentListings(ctx, admin, 2)
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, "C", listings[0].Title)
	assert.Equal(t, "B", listings[1].Title)
}
