package store

import (
	"context"
	"errors"

	"bscar/backend/internal/apperr"
	"bscar/backend/internal/models"

	"gorm.io/gorm"
)

// ToggleFavorite flips the favorite state of a listing for user and reports
// the new state.
func (s *Store) ToggleFavorite(ctx context.Context, user models.User, listingID uint) (bool, error) {
	db := s.db.WithContext(ctx)
	if err := db.Select("id").First(&models.Listing{}, listingID).Error; err != nil {
		return false, apperr.FromStore(err, "listing")
	}

	var favorite models.Favorite
	err := db.Where("user_id = ? AND listing_id = ?", user.ID, listingID).First(&favorite).Error
	switch {
	case err == nil:
		if err := db.Delete(&favorite).Error; err != nil {
			return false, apperr.FromStore(err, "favorite")
		}
		return false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		favorite = models.Favorite{UserID: user.ID, ListingID: listingID}
		if err := db.Create(&favorite).Error; err != nil {
			return false, apperr.FromStore(err, "favorite")
		}
		return true, nil
	default:
		return false, apperr.FromStore(err, "favorite")
	}
}

// IsFavorited reports whether userID has bookmarked listingID.
func (s *Store) IsFavorited(ctx context.Context, userID, listingID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Count(&count).Error
	if err != nil {
		return false, apperr.FromStore(err, "favorite")
	}
	return count > 0, nil
}

// ListFavorites returns the listings user bookmarked, most recently
// bookmarked first.
func (s *Store) ListFavorites(ctx context.Context, user models.User, page, limit int) (Page[models.Listing], error) {
	q := s.db.WithContext(ctx).
		Model(&models.Listing{}).
		Joins("JOIN favorites ON favorites.listing_id = listings.id").
		Where("favorites.user_id = ?", user.ID)

	result, err := paginate[models.Listing](q, page, limit, withListingDetails, func(db *gorm.DB) *gorm.DB {
		return db.Select("listings.*").Order("favorites.created_at DESC, favorites.id DESC")
	})
	if err != nil {
		return Page[models.Listing]{}, apperr.FromStore(err, "favorites")
	}
	return result, nil
}
