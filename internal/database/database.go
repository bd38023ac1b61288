package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"bscar/backend/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Log             *logrus.Logger
}

// Dialector picks the gorm dialect from the DSN. "sqlite://path" and
// "file:..." open SQLite with foreign keys on; anything else is PostgreSQL.
func Dialector(dsn string) gorm.Dialector {
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		return sqliteDialector(strings.TrimPrefix(dsn, "sqlite://"))
	case strings.HasPrefix(dsn, "file:"):
		return sqliteDialector(dsn)
	default:
		return postgres.Open(dsn)
	}
}

func sqliteDialector(path string) gorm.Dialector {
	dsn := path
	if !strings.Contains(dsn, "_pragma=foreign_keys") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	return sqliteDialect{sqlite.Dialector{DriverName: "sqlite", DSN: dsn}}
}

// Open connects with the given dialector and applies pool settings.
func Open(dialector gorm.Dialector, opts Options) (*gorm.DB, error) {
	cfg := &gorm.Config{TranslateError: true}
	if opts.Log != nil {
		cfg.Logger = logger.New(
			opts.Log, // *logrus.Logger satisfies logger.Writer
			logger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		)
	} else {
		cfg.Logger = logger.Discard
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	return db, nil
}

// Connect opens the database named by dsn and runs migrations.
func Connect(dsn string, opts Options) (*gorm.DB, error) {
	db, err := Open(Dialector(dsn), opts)
	if err != nil {
		return nil, err
	}
	if opts.Log != nil {
		opts.Log.Info("Database connection established.")
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	if opts.Log != nil {
		opts.Log.Info("Database migrated successfully.")
	}
	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

// SeedCategories creates the well-known categories if they are missing and
// returns the names it added.
func SeedCategories(db *gorm.DB) ([]string, error) {
	var added []string
	for _, name := range []string{models.CategoryNew, models.CategoryUsed} {
		var existing models.Category
		err := db.Where("name = ?", name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return added, fmt.Errorf("look up category %q: %w", name, err)
		}
		if err := db.Create(&models.Category{Name: name}).Error; err != nil {
			return added, fmt.Errorf("seed category %q: %w", name, err)
		}
		added = append(added, name)
	}
	return added, nil
}

// UpgradeSchema adds columns introduced after the first release to databases
// created before them. It reports whether anything changed.
func UpgradeSchema(db *gorm.DB) (bool, error) {
	migrator := db.Migrator()
	if migrator.HasColumn(&models.User{}, "AvatarFilename") {
		return false, nil
	}
	if err := migrator.AddColumn(&models.User{}, "AvatarFilename"); err != nil {
		return false, fmt.Errorf("add users.avatar_filename: %w", err)
	}
	return true, nil
}
