package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/otpauth/internal/common"
	"github.com/dmitrijs2005/otpauth/internal/logging"
	"github.com/dmitrijs2005/otpauth/internal/server/models"
	"github.com/dmitrijs2005/otpauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/otpauth/internal/server/storage"
	"github.com/dmitrijs2005/otpauth/internal/server/validation"
)

// MaxProfileImageSize caps uploaded avatars at 5 MB.
const MaxProfileImageSize = 5 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Profile is the externally visible view of a user. ImageURL is nil when the
// user has no avatar.
type Profile struct {
	User     *models.User
	ImageURL *string
}

// ProfileUpdate is a partial update; nil fields are left unchanged and an
// empty Phone clears the stored number.
type ProfileUpdate struct {
	FullName *string `json:"full_name" validate:"omitnil,max=255"`
	Phone    *string `json:"phone" validate:"omitnil,phone"`
}

type ProfileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	images      ImageStorage
	logger      logging.Logger
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager, images ImageStorage, logger logging.Logger) *ProfileService {
	return &ProfileService{
		db:          db,
		repomanager: m,
		images:      images,
		logger:      logger.With("module", "profile"),
	}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, user)
}

func (s *ProfileService) Update(ctx context.Context, userID string, upd ProfileUpdate) (*Profile, error) {
	clearPhone := false
	if upd.FullName != nil {
		trimmed := strings.TrimSpace(*upd.FullName)
		upd.FullName = &trimmed
	}
	if upd.Phone != nil {
		trimmed := strings.TrimSpace(*upd.Phone)
		upd.Phone = &trimmed
		if trimmed == "" {
			clearPhone = true
			upd.Phone = nil
		}
	}
	if err := validation.Struct(upd); err != nil {
		return nil, err
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	fullName := user.FullName
	if upd.FullName != nil {
		fullName = *upd.FullName
	}
	phone := user.Phone
	switch {
	case clearPhone:
		phone = nil
	case upd.Phone != nil:
		phone = upd.Phone
	}

	updated, err := s.repomanager.Users(s.db).UpdateProfile(ctx, user.ID, fullName, phone)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.profile(ctx, updated)
}

// UploadImage stores a new avatar and points the user at it. The previous
// object, if any, is removed afterwards; failing to remove it only logs.
func (s *ProfileService) UploadImage(ctx context.Context, userID string, body io.ReadSeeker, size int64, contentType string) (string, error) {
	if body == nil {
		return "", common.NewValidationError("No image file provided.")
	}
	if !allowedImageTypes[contentType] {
		return "", common.NewValidationError("Unsupported image type. Allowed: jpeg, png, gif, webp.")
	}
	if size <= 0 {
		return "", common.NewValidationError("Image file is empty.")
	}
	if size > MaxProfileImageSize {
		return "", common.NewValidationError("Image file is too large. Maximum size is 5 MB.")
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return "", err
	}

	key := storage.ProfileImageKey(user.ID, contentType)
	if err := s.images.Put(ctx, key, body, size, contentType); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}

	if err := s.repomanager.Users(s.db).SetProfileImage(ctx, user.ID, &key); err != nil {
		s.removeObject(ctx, key)
		return "", fmt.Errorf("set profile image: %w", err)
	}

	if user.ProfileImage != nil {
		s.removeObject(ctx, *user.ProfileImage)
	}

	url, err := s.images.URL(ctx, key)
	if err != nil {
		return "", fmt.Errorf("image url: %w", err)
	}

	s.logger.Info(ctx, "profile image uploaded", "user_id", user.ID, "key", key)
	return url, nil
}

func (s *ProfileService) DeleteImage(ctx context.Context, userID string) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.ProfileImage == nil {
		return common.NewNotFoundError("No profile image to delete.")
	}

	if err := s.images.Delete(ctx, *user.ProfileImage); err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	if err := s.repomanager.Users(s.db).SetProfileImage(ctx, user.ID, nil); err != nil {
		return fmt.Errorf("clear profile image: %w", err)
	}
	return nil
}

func (s *ProfileService) getUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewNotFoundError(msgUserNotFound)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

func (s *ProfileService) profile(ctx context.Context, user *models.User) (*Profile, error) {
	p := &Profile{User: user}
	if user.ProfileImage != nil {
		url, err := s.images.URL(ctx, *user.ProfileImage)
		if err != nil {
			return nil, fmt.Errorf("image url: %w", err)
		}
		p.ImageURL = &url
	}
	return p, nil
}

func (s *ProfileService) removeObject(ctx context.Context, key string) {
	if err := s.images.Delete(ctx, key); err != nil {
		s.logger.Warn(ctx, "failed to delete image object", "key", key, "error", err)
	}
}
