package store

import (
	"context"
	"testing"

	"bscar/backend/internal/apperr"
	"bscar/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupportTicketLifecycle(t *testing.T) {
	env := newTestStore(t)
	ctx := context.Background()
	user := env.createUser(t, "user@example.com", models.RoleUser)
	other := env.createUser(t, "other@example.com", models.RoleUser)
	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)

	_, err := env.store.CreateTicket(ctx, user, " ", "help")
	assertKind(t, err, apperr.KindValidation)
	_, err = env.store.CreateTicket(ctx, user, "Login", "")
	assertKind(t, err, apperr.KindValidation)

	ticket, err := env.store.CreateTicket(ctx, user, "Login", "I cannot log in")
	require.NoError(t, err)
	assert.Equal(t, models.TicketPending, ticket.Status)
	assert.Nil(t, ticket.Reply)
	_, err = env.store.CreateTicket(ctx, other, "Photos", "Upload fails")
	require.NoError(t, err)

	own, err := env.store.ListTickets(ctx, user)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "Login", own[0].Subject)

	all, err := env.store.ListTickets(ctx, admin)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Photos", all[0].Subject, "newest first")
	assert.Equal(t, other.Email, all[0].User.Email)

	_, err = env.store.ReplyTicket(ctx, user, ticket.ID, "self answer")
	assertKind(t, err, apperr.KindAuthorization)
	_, err = env.store.ReplyTicket(ctx, admin, ticket.ID, "  ")
	assertKind(t, err, apperr.KindValidation)
	_, err = env.store.ReplyTicket(ctx, admin, 999, "hi")
	assertKind(t, err, apperr.KindNotFound)

	answered, err := env.store.ReplyTicket(ctx, admin, ticket.ID, "Reset your password")
	require.NoError(t, err)
	assert.Equal(t, models.TicketAnswered, answered.Status)
	require.NotNil(t, answered.Reply)
	assert.Equal(t, "Reset your password", *answered.Reply)

	_, err = env.store.ReplyTicket(ctx, admin, ticket.ID, "second reply")
	assertKind(t, err, apperr.KindDomain)

	var stored models.SupportTicket
	require.NoError(t, env.db.First(&stored, ticket.ID).Error)
	assert.Equal(t, "Reset your password", *stored.Reply)
}
