package store

import (
	"context"
	"os"
	"testing"

	"bscar/backend/internal/apperr"
	"bscar/backend/internal/models"
	"bscar/backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	env := newTestStore(t)
	ctx := context.Background()

	_, err := env.store.Register(ctx, RegisterInput{Email: "a@example.com", Password: "short"}, nil)
	assertKind(t, err, apperr.KindValidation)
	_, err = env.store.Register(ctx, RegisterInput{Email: "not-an-email", Password: "long enough"}, nil)
	assertKind(t, err, apperr.KindValidation)

	avatar := upload("me.png", pngBytes)
	user, err := env.store.Register(ctx, RegisterInput{Email: " Ann@Example.com ", Password: "correct horse", Name: "Ann"}, &avatar)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "correct horse", user.PasswordHash)
	require.NotNil(t, user.AvatarFilename)
	path, err := env.files.Path(storage.BucketAvatars, *user.AvatarFilename)
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.NoError(t, err)

	_, err = env.store.Register(ctx, RegisterInput{Email: "ann@example.com", Password: "another one"}, nil)
	assertKind(t, err, apperr.KindDomain)

	bad := upload("me.txt", []byte("text"))
	_, err = env.store.Register(ctx, RegisterInput{Email: "bob@example.com", Password: "long enough"}, &bad)
	assertKind(t, err, apperr.KindValidation)
	assert.Equal(t, int64(1), env.count(t, &models.User{}))

	got, err := env.store.Authenticate(ctx, "ANN@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = env.store.Authenticate(ctx, "ann@example.com", "wrong password")
	assertKind(t, err, apperr.KindAuthorization)
	_, err = env.store.Authenticate(ctx, "ghost@example.com", "correct horse")
	assertKind(t, err, apperr.KindAuthorization)
}

func TestBlockedUserCannotAuthenticate(t *testing.T) {
	env := newTestStore(t)
	ctx := context.Background()
	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)

	_, err := env.store.Register(ctx, RegisterInput{Email: "bad@example.com", Password: "password1"}, nil)
	require.NoError(t, err)
	_, _, err = env.store.BlockUser(ctx, admin, "bad@example.com", "fraud")
	require.NoError(t, err)

	_, err = env.store.Authenticate(ctx, "bad@example.com", "password1")
	assertKind(t, err, apperr.KindAuthorization)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestStore(t)
	ctx := context.Background()
	user := env.createUser(t, "user@example.com", models.RoleUser)
	env.createUser(t, "taken@example.com", models.RoleUser)

	_, err := env.store.UpdateProfile(ctx, user, ProfileInput{Email: "TAKEN@example.com"}, nil)
	assertKind(t, err, apperr.KindDomain)

	bad := upload("avatar.exe", pngBytes)
	_, err = env.store.UpdateProfile(ctx, user, ProfileInput{Name: "New"}, &bad)
	assertKind(t, err, apperr.KindValidation)

	first := upload("one.png", pngBytes)
	updated, err := env.store.UpdateProfile(ctx, user, ProfileInput{Name: "  New Name ", Email: "fresh@example.com"}, &first)
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "fresh@example.com", updated.Email)
	require.NotNil(t, updated.AvatarFilename)
	oldAvatar := *updated.AvatarFilename

	second := upload("two.gif", gifBytes)
	updated, err = env.store.UpdateProfile(ctx, *updated, ProfileInput{}, &second)
	require.NoError(t, err)
	require.NotNil(t, updated.AvatarFilename)
	assert.NotEqual(t, oldAvatar, *updated.AvatarFilename)

	oldPath, err := env.files.Path(storage.BucketAvatars, oldAvatar)
	require.NoError(t, err)
	_, err = os.Stat(oldPath)
	assert.True(t, os.IsNotExist(err), "previous avatar removed")

	currentPath, err := env.files.Path(storage.BucketAvatars, *updated.AvatarFilename)
	require.NoError(t, err)
	_, err = os.Stat(currentPath)
	assert.NoError(t, err, "new avatar kept")

	unchanged, err := env.store.UpdateProfile(ctx, *updated, ProfileInput{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "New Name", unchanged.Name)
}

func TestBootstrapAdmin(t *testing.T) {
	env := newTestStore(t)
	ctx := context.Background()

	admin, created, err := env.store.BootstrapAdmin(ctx, "root@example.com", "supersecret")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	_, err = env.store.Authenticate(ctx, "root@example.com", "supersecret")
	require.NoError(t, err)

	user := env.createUser(t, "promote@example.com", models.RoleUser)
	promoted, created, err := env.store.BootstrapAdmin(ctx, user.Email, "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, models.RoleAdmin, promoted.Role)

	_, _, err = env.store.BootstrapAdmin(ctx, "new@example.com", "short")
	assertKind(t, err, apperr.KindValidation)
}
