package store

import (
	"context"
	"errors"
	"strings"

	"bscar/backend/internal/apperr"
	"bscar/backend/internal/metrics"
	"bscar/backend/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultComplaintReason is used when a report is filed without a reason.
const DefaultComplaintReason = "Reported by user"

func recordAction(tx *gorm.DB, moderatorID uint, action models.ModerationKind, listingID, targetUserID *uint, details datatypes.JSONMap) error {
	entry := models.ModerationAction{
		ModeratorID:  moderatorID,
		ListingID:    listingID,
		TargetUserID: targetUserID,
		Action:       action,
		Details:      details,
	}
	return tx.Create(&entry).Error
}

// GrantAdmin promotes the user with the given email. Promoting an admin is a
// no-op reported through changed; blocked users cannot be promoted.
func (s *Store) GrantAdmin(ctx context.Context, actor models.User, email string) (target *models.User, changed bool, err error) {
	if err := requireAdmin(actor); err != nil {
		return nil, false, err
	}
	email = normalizeEmail(email)
	if email == "" {
		return nil, false, apperr.Validation("email is required")
	}

	var user models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", email).First(&user).Error; err != nil {
			return err
		}
		switch user.Role {
		case models.RoleAdmin:
			return nil
		case models.RoleBlocked:
			return apperr.Domain("blocked users cannot be made admins")
		}

		if err := tx.Model(&user).Update("role", models.RoleAdmin).Error; err != nil {
			return err
		}
		user.Role = models.RoleAdmin
		changed = true
		return recordAction(tx, actor.ID, models.ActionGrantAdmin, nil, &user.ID, datatypes.JSONMap{"email": user.Email})
	})
	if err != nil {
		return nil, false, apperr.FromStore(err, "user")
	}

	if changed {
		metrics.ModerationAction(string(models.ActionGrantAdmin))
		s.log.WithFields(logrus.Fields{"actor_id": actor.ID, "user_id": user.ID}).Info("admin role granted")
	}
	return &user, changed, nil
}

// BlockUser blocks the user with the given email. Admins cannot be blocked;
// blocking a blocked user is a no-op.
func (s *Store) BlockUser(ctx context.Context, actor models.User, email, reason string) (target *models.User, changed bool, err error) {
	if err := requireAdmin(actor); err != nil {
		return nil, false, err
	}
	email = normalizeEmail(email)
	reason = strings.TrimSpace(reason)
	if email == "" || reason == "" {
		return nil, false, apperr.Validation("email and reason are required")
	}

	var user models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", email).First(&user).Error; err != nil {
			return err
		}
		switch user.Role {
		case models.RoleAdmin:
			return apperr.Domain("admins cannot be blocked")
		case models.RoleBlocked:
			return nil
		}

		if err := tx.Model(&user).Update("role", models.RoleBlocked).Error; err != nil {
			return err
		}
		user.Role = models.RoleBlocked
		changed = true
		return recordAction(tx, actor.ID, models.ActionBlockUser, nil, &user.ID, datatypes.JSONMap{"email": user.Email, "reason": reason})
	})
	if err != nil {
		return nil, false, apperr.FromStore(err, "user")
	}

	if changed {
		metrics.ModerationAction(string(models.ActionBlockUser))
		s.log.WithFields(logrus.Fields{"actor_id": actor.ID, "user_id": user.ID, "reason": reason}).Info("user blocked")
	}
	return &user, changed, nil
}

// FileComplaint reports a listing. Each user may report a listing once and
// never their own.
func (s *Store) FileComplaint(ctx context.Context, submitter models.User, listingID uint, reason string) (*models.Complaint, error) {
	db := s.db.WithContext(ctx)

	var listing models.Listing
	if err := db.First(&listing, listingID).Error; err != nil {
		return nil, apperr.FromStore(err, "listing")
	}
	if listing.OwnerID == submitter.ID {
		return nil, apperr.Domain("you cannot report your own listing")
	}

	var existing int64
	err := db.Model(&models.Complaint{}).
		Where("listing_id = ? AND submitter_id = ?", listingID, submitter.ID).
		Count(&existing).Error
	if err != nil {
		return nil, apperr.FromStore(err, "complaint")
	}
	if existing > 0 {
		return nil, apperr.Domain("you have already reported this listing")
	}

	if reason = strings.TrimSpace(reason); reason == "" {
		reason = DefaultComplaintReason
	}
	complaint := models.Complaint{
		ListingID:   listingID,
		SubmitterID: submitter.ID,
		Reason:      reason,
		Status:      models.ComplaintPending,
	}
	if err := db.Create(&complaint).Error; err != nil {
		return nil, apperr.FromStore(err, "complaint")
	}
	return &complaint, nil
}

// ListComplaints returns complaints newest first, optionally by status.
func (s *Store) ListComplaints(ctx context.Context, actor models.User, status string) ([]models.Complaint, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).
		Preload("Listing").
		Preload("Submitter").
		Order("created_at DESC, id DESC")
	if status = strings.TrimSpace(status); status != "" {
		q = q.Where("status = ?", status)
	}

	complaints := make([]models.Complaint, 0)
	if err := q.Find(&complaints).Error; err != nil {
		return nil, apperr.FromStore(err, "complaints")
	}
	return complaints, nil
}

// RecentListings is the admin panel feed.
func (s *Store) RecentListings(ctx context.Context, actor models.User, limit int) ([]models.Listing, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	_, limit = normalizePage(1, limit)

	listings := make([]models.Listing, 0)
	err := s.db.WithContext(ctx).
		Scopes(withListingDetails, newestListingsFirst).
		Limit(limit).
		Find(&listings).Error
	if err != nil {
		return nil, apperr.FromStore(err, "listings")
	}
	return listings, nil
}

// ListModerationActions returns the audit log, newest first.
func (s *Store) ListModerationActions(ctx context.Context, actor models.User, limit int) ([]models.ModerationAction, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	_, limit = normalizePage(1, limit)

	actions := make([]models.ModerationAction, 0)
	err := s.db.WithContext(ctx).
		Preload("Moderator").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&actions).Error
	if err != nil {
		return nil, apperr.FromStore(err, "moderation actions")
	}
	return actions, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
