package store

import (
	"context"
	"fmt"
	"strings"

	"bscar/backend/internal/apperr"
	"bscar/backend/internal/models"
	"bscar/backend/internal/storage"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const MinPasswordLength = 8

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

type ProfileInput struct {
	Name  string
	Email string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// acceptAvatar runs image intake on an optional avatar. Unlike listing
// images, a rejected avatar fails the whole operation.
func acceptAvatar(avatar *Upload) (*acceptedImage, error) {
	if avatar == nil {
		return nil, nil
	}
	img, rejection, err := readImage(*avatar)
	if err != nil {
		return nil, apperr.Internal("failed to read uploaded file", err)
	}
	if rejection != "" {
		recordRejection(rejection)
		return nil, apperr.Validation(rejection.message(avatar.Filename))
	}
	return img, nil
}

// Register creates a user account with the "user" role.
func (s *Store) Register(ctx context.Context, in RegisterInput, avatar *Upload) (*models.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.Validation("a valid email is required")
	}
	if len(in.Password) < MinPasswordLength {
		return nil, apperr.Validation(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	img, err := acceptAvatar(avatar)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var taken int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&taken).Error; err != nil {
		return nil, apperr.FromStore(err, "user")
	}
	if taken > 0 {
		return nil, apperr.Domain("a user with this email already exists")
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(in.Name),
		Role:         models.RoleUser,
	}

	var stored string
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		if img == nil {
			return nil
		}
		name, err := s.saveImage(storage.BucketAvatars, fmt.Sprintf("user_%d", user.ID), img)
		if err != nil {
			return apperr.Internal("failed to store avatar", err)
		}
		stored = name
		user.AvatarFilename = &stored
		return tx.Model(&user).Update("avatar_filename", stored).Error
	})
	if err != nil {
		if stored != "" {
			s.removeFiles(storage.BucketAvatars, []string{stored})
		}
		return nil, apperr.FromStore(err, "user")
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID}).Info("user registered")
	return &user, nil
}

// Authenticate checks credentials. Blocked accounts cannot sign in.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if isNotFound(err) {
		return nil, apperr.Forbidden("invalid email or password")
	}
	if err != nil {
		return nil, apperr.FromStore(err, "user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Forbidden("invalid email or password")
	}
	if user.IsBlocked() {
		return nil, apperr.Forbidden("this account has been blocked")
	}
	return &user, nil
}

func (s *Store) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, apperr.FromStore(err, "user")
	}
	return &user, nil
}

// UpdateProfile changes the name, email and avatar of user. Empty fields are
// left as they are. The previous avatar file is removed once the new one is
// committed.
func (s *Store) UpdateProfile(ctx context.Context, user models.User, in ProfileInput, avatar *Upload) (*models.User, error) {
	img, err := acceptAvatar(avatar)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var current models.User
	if err := db.First(&current, user.ID).Error; err != nil {
		return nil, apperr.FromStore(err, "user")
	}

	updates := map[string]interface{}{}
	if name := strings.TrimSpace(in.Name); name != "" {
		updates["name"] = name
	}
	if email := normalizeEmail(in.Email); email != "" && email != current.Email {
		if !strings.Contains(email, "@") {
			return nil, apperr.Validation("a valid email is required")
		}
		var taken int64
		err := db.Model(&models.User{}).Where("email = ? AND id <> ?", email, current.ID).Count(&taken).Error
		if err != nil {
			return nil, apperr.FromStore(err, "user")
		}
		if taken > 0 {
			return nil, apperr.Domain("this email is already used by another user")
		}
		updates["email"] = email
	}

	var stored string
	if img != nil {
		stored, err = s.saveImage(storage.BucketAvatars, fmt.Sprintf("user_%d", current.ID), img)
		if err != nil {
			return nil, apperr.Internal("failed to store avatar", err)
		}
		updates["avatar_filename"] = stored
	}
	if len(updates) == 0 {
		return &current, nil
	}

	var previous string
	if current.AvatarFilename != nil {
		previous = *current.AvatarFilename
	}
	if err := db.Model(&current).Updates(updates).Error; err != nil {
		if stored != "" {
			s.removeFiles(storage.BucketAvatars, []string{stored})
		}
		return nil, apperr.FromStore(err, "user")
	}
	if stored != "" && previous != "" && previous != stored {
		s.removeFiles(storage.BucketAvatars, []string{previous})
	}

	if err := db.First(&current, current.ID).Error; err != nil {
		return nil, apperr.FromStore(err, "user")
	}
	return &current, nil
}

// BootstrapAdmin makes sure an admin account exists for email: an existing
// user is promoted, otherwise a new admin is created with password. created
// reports which happened.
func (s *Store) BootstrapAdmin(ctx context.Context, email, password string) (user *models.User, created bool, err error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, false, apperr.Validation("admin email is required")
	}

	db := s.db.WithContext(ctx)
	var existing models.User
	err = db.Where("email = ?", email).First(&existing).Error
	switch {
	case err == nil:
		if existing.Role != models.RoleAdmin {
			if err := db.Model(&existing).Update("role", models.RoleAdmin).Error; err != nil {
				return nil, false, apperr.FromStore(err, "user")
			}
			existing.Role = models.RoleAdmin
		}
		return &existing, false, nil
	case !isNotFound(err):
		return nil, false, apperr.FromStore(err, "user")
	}

	if len(password) < MinPasswordLength {
		return nil, false, apperr.Validation(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, false, apperr.Internal("failed to hash password", err)
	}
	admin := models.User{Email: email, PasswordHash: hash, Role: models.RoleAdmin}
	if err := db.Create(&admin).Error; err != nil {
		return nil, false, apperr.FromStore(err, "user")
	}
	return &admin, true, nil
}
