// Package store holds the marketplace operations. Every method takes the
// acting user explicitly; handlers resolve it from the session first.
package store

import (
	"bscar/backend/internal/apperr"
	"bscar/backend/internal/hub"
	"bscar/backend/internal/models"
	"bscar/backend/internal/storage"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Store struct {
	db     *gorm.DB
	files  storage.Files
	events *hub.Hub
	log    *logrus.Logger
}

// New builds a Store. events may be nil, in which case new messages are not
// published.
func New(db *gorm.DB, files storage.Files, events *hub.Hub, log *logrus.Logger) *Store {
	if log == nil {
		log = logrus.New()
	}
	return &Store{db: db, files: files, events: events, log: log}
}

// DB exposes the underlying handle for health checks and CLI commands.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Page is one slice of an ordered result set.
type Page[T any] struct {
	Items []T
	Total int64
	Page  int
	Limit int
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// paginate counts base, then fetches one page of it with scopes applied.
// Ordering and preloads belong in scopes so the count stays a plain COUNT.
func paginate[T any](base *gorm.DB, page, limit int, scopes ...func(*gorm.DB) *gorm.DB) (Page[T], error) {
	page, limit = normalizePage(page, limit)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Page[T]{}, err
	}

	items := make([]T, 0)
	if total > 0 {
		offset := (page - 1) * limit
		err := base.Session(&gorm.Session{}).
			Scopes(scopes...).
			Offset(offset).
			Limit(limit).
			Find(&items).Error
		if err != nil {
			return Page[T]{}, err
		}
	}
	return Page[T]{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func requireAdmin(actor models.User) error {
	if !actor.IsAdmin() {
		return apperr.Forbidden("admin access required")
	}
	return nil
}
