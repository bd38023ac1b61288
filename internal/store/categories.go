package store

import (
	"context"
	"strings"

	"bscar/backend/internal/apperr"
	"bscar/backend/internal/models"

	"gorm.io/gorm"
)

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := make([]models.Category, 0)
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, apperr.FromStore(err, "categories")
	}
	return categories, nil
}

func (s *Store) CreateCategory(ctx context.Context, actor models.User, name string, parentID *uint) (*models.Category, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("category name is required")
	}

	category := models.Category{Name: name, ParentID: parentID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if parentID != nil {
			if err := tx.Select("id").First(&models.Category{}, *parentID).Error; err != nil {
				return apperr.FromStore(err, "parent category")
			}
		}
		var taken int64
		if err := tx.Model(&models.Category{}).Where("name = ?", name).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return apperr.Domain("a category with this name already exists")
		}
		return tx.Create(&category).Error
	})
	if err != nil {
		return nil, apperr.FromStore(err, "category")
	}
	return &category, nil
}

// SetCategoryParent moves a category under parentID, or to the top level when
// parentID is nil. A move that would make the category its own ancestor is
// rejected.
func (s *Store) SetCategoryParent(ctx context.Context, actor models.User, id uint, parentID *uint) (*models.Category, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var category models.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&category, id).Error; err != nil {
			return err
		}
		if parentID != nil {
			if err := checkAcyclic(tx, id, *parentID); err != nil {
				return err
			}
		}
		if err := tx.Model(&category).Update("parent_id", parentID).Error; err != nil {
			return err
		}
		category.ParentID = parentID
		return nil
	})
	if err != nil {
		return nil, apperr.FromStore(err, "category")
	}
	return &category, nil
}

// checkAcyclic walks up from parentID and fails if it reaches id.
func checkAcyclic(tx *gorm.DB, id, parentID uint) error {
	seen := map[uint]bool{}
	next := &parentID
	for next != nil {
		if *next == id {
			return apperr.Domain("a category cannot be placed under itself or its descendants")
		}
		if seen[*next] {
			// Pre-existing loop above us that does not include id.
			return nil
		}
		seen[*next] = true

		var ancestor models.Category
		if err := tx.Select("id", "parent_id").First(&ancestor, *next).Error; err != nil {
			if isNotFound(err) {
				return apperr.NotFound("parent category")
			}
			return err
		}
		next = ancestor.ParentID
	}
	return nil
}
