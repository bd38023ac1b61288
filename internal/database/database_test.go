package database

import (
	"path/filepath"
	"testing"

	"bscar/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestDialectorPicksDriverFromDSN(t *testing.T) {
	d, ok := Dialector("sqlite:///tmp/x.db").(sqliteDialect)
	require.True(t, ok)
	assert.Equal(t, "sqlite", d.DriverName)
	assert.Contains(t, d.DSN, "_pragma=foreign_keys(1)")

	_, ok = Dialector("postgres://u:p@localhost:5432/bscar").(*postgres.Dialector)
	assert.True(t, ok)
}

func TestConnectMigratesAndSeeds(t *testing.T) {
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "bscar_test.db")
	db, err := Connect(dsn, Options{})
	require.NoError(t, err)

	added, err := SeedCategories(db)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{models.CategoryNew, models.CategoryUsed}, added)

	added, err = SeedCategories(db)
	require.NoError(t, err)
	assert.Empty(t, added)

	var count int64
	require.NoError(t, db.Model(&models.Category{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestUpgradeSchemaAddsAvatarColumnOnce(t *testing.T) {
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "legacy.db")
	db, err := Open(Dialector(dsn), Options{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE users (
		id integer PRIMARY KEY AUTOINCREMENT,
		created_at datetime, updated_at datetime, deleted_at datetime,
		email varchar(255) NOT NULL UNIQUE,
		password_hash varchar(255) NOT NULL,
		name varchar(120),
		role varchar(32) NOT NULL DEFAULT 'user'
	)`).Error)

	changed, err := UpgradeSchema(db)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, db.Migrator().HasColumn(&models.User{}, "AvatarFilename"))

	changed, err = UpgradeSchema(db)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestSQLiteConstraintErrorsAreTranslated(t *testing.T) {
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "constraints.db")
	db, err := Connect(dsn, Options{})
	require.NoError(t, err)

	user := models.User{Email: "a@example.com", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, db.Create(&user).Error)
	listing := models.Listing{Title: "Car", OwnerID: user.ID, Status: models.ListingActive}
	require.NoError(t, db.Create(&listing).Error)

	require.NoError(t, db.Create(&models.Favorite{UserID: user.ID, ListingID: listing.ID}).Error)
	err = db.Create(&models.Favorite{UserID: user.ID, ListingID: listing.ID}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	err = db.Create(&models.User{Email: "a@example.com", PasswordHash: "y", Role: models.RoleUser}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	err = db.Create(&models.Favorite{UserID: user.ID, ListingID: listing.ID + 100}).Error
	assert.ErrorIs(t, err, gorm.ErrForeignKeyViolated)
}
