package store

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"bscar/backend/internal/apperr"
	"bscar/backend/internal/metrics"
	"bscar/backend/internal/models"
	"bscar/backend/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Category filter values accepted by ListListings.
const (
	FilterAll  = "all"
	FilterNew  = "new"
	FilterUsed = "used"
)

// maxPrice is the first value that no longer fits the decimal(12,2) column.
var maxPrice = decimal.New(1, 10)

type ListingInput struct {
	Title       string
	Price       string
	Description string
	CategoryID  *uint
}

type ListingFilter struct {
	Category string
	Search   string
	OwnerID  *uint
	Page     int
	Limit    int
}

// ListingStats are the per-filter counts shown above the listing feed.
type ListingStats struct {
	All  int64 `json:"all"`
	New  int64 `json:"new"`
	Used int64 `json:"used"`
}

// CreateListing stores a new active listing owned by owner. Uploads that fail
// intake are skipped and reported in the returned warnings; the first stored
// image becomes the primary one.
func (s *Store) CreateListing(ctx context.Context, owner models.User, in ListingInput, uploads []Upload) (*models.Listing, []string, error) {
	title := strings.TrimSpace(in.Title)
	rawPrice := strings.TrimSpace(in.Price)
	if title == "" || rawPrice == "" {
		return nil, nil, apperr.Validation("title and price are required")
	}
	price, err := decimal.NewFromString(rawPrice)
	if err != nil {
		return nil, nil, apperr.Validation("invalid price format")
	}
	if price.IsNegative() {
		return nil, nil, apperr.Validation("price must not be negative")
	}
	if !price.Equal(price.Round(2)) {
		return nil, nil, apperr.Validation("price can have at most two decimal places")
	}
	if price.GreaterThanOrEqual(maxPrice) {
		return nil, nil, apperr.Validation("price is too large")
	}

	db := s.db.WithContext(ctx)
	var category *models.Category
	if in.CategoryID != nil {
		category = &models.Category{}
		if err := db.First(category, *in.CategoryID).Error; err != nil {
			return nil, nil, apperr.FromStore(err, "category")
		}
	}

	var warnings []string
	var accepted []*acceptedImage
	for _, up := range uploads {
		img, rejection, err := readImage(up)
		if err != nil {
			return nil, nil, apperr.Internal("failed to read uploaded file", err)
		}
		if rejection != "" {
			recordRejection(rejection)
			warnings = append(warnings, rejection.message(up.Filename))
			continue
		}
		accepted = append(accepted, img)
	}

	listing := models.Listing{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Price:       price,
		Status:      models.ListingActive,
		OwnerID:     owner.ID,
		CategoryID:  in.CategoryID,
	}

	var stored []string
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&listing).Error; err != nil {
			return err
		}
		prefix := strconv.FormatUint(uint64(listing.ID), 10)
		for _, img := range accepted {
			name, err := s.saveImage(storage.BucketListings, prefix, img)
			if err != nil {
				return apperr.Internal("failed to store uploaded file", err)
			}
			stored = append(stored, name)

			image := models.ListingImage{
				ListingID:        listing.ID,
				Filename:         name,
				OriginalFilename: img.original,
				FileSize:         int64(len(img.data)),
				IsPrimary:        len(listing.Images) == 0,
			}
			if err := tx.Create(&image).Error; err != nil {
				return err
			}
			listing.Images = append(listing.Images, image)
		}
		return nil
	})
	if err != nil {
		s.removeFiles(storage.BucketListings, stored)
		return nil, nil, apperr.FromStore(err, "listing")
	}

	listing.Owner = owner
	listing.Category = category

	metrics.ListingCreated()
	s.log.WithFields(logrus.Fields{
		"listing_id": listing.ID,
		"owner_id":   owner.ID,
		"images":     len(listing.Images),
		"skipped":    len(warnings),
	}).Info("listing created")

	return &listing, warnings, nil
}

func withListingDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Owner").
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, id ASC")
		})
}

func newestListingsFirst(db *gorm.DB) *gorm.DB {
	return db.Order("listings.created_at DESC, listings.id DESC")
}

// GetListing loads a listing with its owner, category and images.
func (s *Store) GetListing(ctx context.Context, id uint) (*models.Listing, error) {
	var listing models.Listing
	if err := s.db.WithContext(ctx).Scopes(withListingDetails).First(&listing, id).Error; err != nil {
		return nil, apperr.FromStore(err, "listing")
	}
	return &listing, nil
}

// ListListings returns the newest listings matching filter. The "new" and
// "used" filters match nothing when their category row does not exist.
func (s *Store) ListListings(ctx context.Context, filter ListingFilter) (Page[models.Listing], error) {
	db := s.db.WithContext(ctx)
	q := db.Model(&models.Listing{})

	switch filter.Category {
	case "", FilterAll:
	case FilterNew, FilterUsed:
		categoryID, err := s.wellKnownCategory(ctx, filter.Category)
		if err != nil {
			return Page[models.Listing]{}, err
		}
		if categoryID == nil {
			page, limit := normalizePage(filter.Page, filter.Limit)
			return Page[models.Listing]{Items: []models.Listing{}, Page: page, Limit: limit}, nil
		}
		q = q.Where("listings.category_id = ?", *categoryID)
	default:
		return Page[models.Listing]{}, apperr.Validation("unknown category filter: " + filter.Category)
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		q = q.Where(`LOWER(listings.title) LIKE ? ESCAPE '\'`, likePattern(search))
	}
	if filter.OwnerID != nil {
		q = q.Where("listings.owner_id = ?", *filter.OwnerID)
	}

	page, err := paginate[models.Listing](q, filter.Page, filter.Limit, withListingDetails, newestListingsFirst)
	if err != nil {
		return Page[models.Listing]{}, apperr.FromStore(err, "listings")
	}
	return page, nil
}

// ListingStats counts listings per filter, honouring the title search.
func (s *Store) ListingStats(ctx context.Context, search string) (ListingStats, error) {
	var stats ListingStats
	db := s.db.WithContext(ctx)
	search = strings.TrimSpace(search)

	base := func() *gorm.DB {
		q := db.Model(&models.Listing{})
		if search != "" {
			q = q.Where(`LOWER(listings.title) LIKE ? ESCAPE '\'`, likePattern(search))
		}
		return q
	}

	if err := base().Count(&stats.All).Error; err != nil {
		return stats, apperr.FromStore(err, "listings")
	}
	for filter, count := range map[string]*int64{FilterNew: &stats.New, FilterUsed: &stats.Used} {
		categoryID, err := s.wellKnownCategory(ctx, filter)
		if err != nil {
			return stats, err
		}
		if categoryID == nil {
			continue
		}
		if err := base().Where("listings.category_id = ?", *categoryID).Count(count).Error; err != nil {
			return stats, apperr.FromStore(err, "listings")
		}
	}
	return stats, nil
}

// SetListingStatus changes the status of a listing. Only the owner may do so.
func (s *Store) SetListingStatus(ctx context.Context, actor models.User, id uint, status models.ListingStatus) (*models.Listing, error) {
	if !status.Valid() {
		return nil, apperr.Validation("unknown listing status: " + string(status))
	}

	db := s.db.WithContext(ctx)
	var listing models.Listing
	if err := db.First(&listing, id).Error; err != nil {
		return nil, apperr.FromStore(err, "listing")
	}
	if listing.OwnerID != actor.ID {
		return nil, apperr.Forbidden("only the owner can change this listing")
	}
	if err := db.Model(&listing).Update("status", status).Error; err != nil {
		return nil, apperr.FromStore(err, "listing")
	}
	listing.Status = status
	return &listing, nil
}

// DeleteListing removes a listing and everything hanging off it. Admins may
// delete any listing; other users only their own. Rows go in one transaction
// in the order messages, chats, complaints, favorites, images, listing; the
// image files are removed once the transaction has committed.
func (s *Store) DeleteListing(ctx context.Context, actor models.User, id uint, reason string) error {
	var listing models.Listing
	var images []models.ListingImage

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&listing, id).Error; err != nil {
			return err
		}
		if !actor.IsAdmin() && listing.OwnerID != actor.ID {
			return apperr.Forbidden("only the owner or an admin can delete this listing")
		}
		if err := tx.Where("listing_id = ?", id).Find(&images).Error; err != nil {
			return err
		}

		steps := []struct {
			model interface{}
			where string
		}{
			{&models.Message{}, "chat_id IN (SELECT id FROM chats WHERE listing_id = ?)"},
			{&models.Chat{}, "listing_id = ?"},
			{&models.Complaint{}, "listing_id = ?"},
			{&models.Favorite{}, "listing_id = ?"},
			{&models.ListingImage{}, "listing_id = ?"},
		}
		for _, step := range steps {
			if err := tx.Where(step.where, id).Delete(step.model).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&models.Listing{}, id).Error; err != nil {
			return err
		}

		if actor.IsAdmin() {
			details := datatypes.JSONMap{"title": listing.Title, "owner_id": listing.OwnerID}
			if reason = strings.TrimSpace(reason); reason != "" {
				details["reason"] = reason
			}
			return recordAction(tx, actor.ID, models.ActionDeleteListing, &listing.ID, &listing.OwnerID, details)
		}
		return nil
	})
	if err != nil {
		return apperr.FromStore(err, "listing")
	}

	names := make([]string, 0, len(images))
	for _, img := range images {
		names = append(names, img.Filename)
	}
	s.removeFiles(storage.BucketListings, names)

	by := "owner"
	if actor.IsAdmin() {
		by = "admin"
		metrics.ModerationAction(string(models.ActionDeleteListing))
	}
	metrics.ListingDeleted(by)
	s.log.WithFields(logrus.Fields{
		"listing_id": id,
		"actor_id":   actor.ID,
		"by":         by,
	}).Info("listing deleted")
	return nil
}

// wellKnownCategory resolves the "new"/"used" filter to a category id, or nil
// when that category has not been created.
func (s *Store) wellKnownCategory(ctx context.Context, filter string) (*uint, error) {
	name := models.CategoryNew
	if filter == FilterUsed {
		name = models.CategoryUsed
	}

	var category models.Category
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.FromStore(err, "category")
	}
	return &category.ID, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a case-insensitive substring pattern for LIKE ... ESCAPE '\'.
func likePattern(search string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
}
