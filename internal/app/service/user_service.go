package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"kaab_hub/internal/common"
	"kaab_hub/internal/common/security"
	"kaab_hub/internal/domain/model"
	"kaab_hub/internal/domain/repository"
	"kaab_hub/internal/platform/storage"
)

// PictureStore keeps uploaded profile pictures and returns their public URL.
type PictureStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

type UserService struct {
	userRepo     repository.UserRepository
	questionRepo repository.QuestionRepository
	answerRepo   repository.AnswerRepository
	pictures     PictureStore
}

// NewUserService accepts a nil store; picture uploads then report the feature as unavailable.
func NewUserService(
	userRepo repository.UserRepository,
	questionRepo repository.QuestionRepository,
	answerRepo repository.AnswerRepository,
	pictures PictureStore,
) *UserService {
	return &UserService{
		userRepo:     userRepo,
		questionRepo: questionRepo,
		answerRepo:   answerRepo,
		pictures:     pictures,
	}
}

func (s *UserService) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// Profile returns userID's profile with their questions and answers. When the
// viewer is someone else the owner's privacy settings are applied.
func (s *UserService) Profile(ctx context.Context, viewerID, userID string) (*model.Profile, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	if viewerID != userID {
		shown := user.ApplyPrivacy()
		user = &shown
	}

	questions, err := s.questionRepo.ListByAuthor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	answers, err := s.answerRepo.ListByAuthor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}
	return &model.Profile{User: user, QuestionsAsked: questions, AnswersProvided: answers}, nil
}

// UpdateProfile applies a partial update. Any key outside model.UserUpdateKeys rejects the whole request.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, raw map[string]json.RawMessage) (*model.User, error) {
	if err := common.CheckAllowedKeys(raw, model.UserUpdateKeys...); err != nil {
		return nil, err
	}
	var upd model.ProfileUpdate
	if err := decodeRaw(raw, &upd); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := upd.Apply(user); err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

type SettingsUpdate struct {
	NotificationPreferences *model.NotificationPreferences `json:"notificationPreferences"`
	PrivacySettings         *model.PrivacySettings         `json:"privacySettings"`
}

func (s *UserService) UpdateSettings(ctx context.Context, userID string, upd SettingsUpdate) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if upd.NotificationPreferences != nil {
		user.NotificationPreferences = *upd.NotificationPreferences
	}
	if upd.PrivacySettings != nil {
		user.PrivacySettings = *upd.PrivacySettings
	}
	if err := s.userRepo.UpdateSettings(ctx, userID, user.NotificationPreferences, user.PrivacySettings); err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}
	return user, nil
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

func (s *UserService) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error {
	if err := common.Validate(req); err != nil {
		return err
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if !security.CheckPasswordHash(req.CurrentPassword, user.HashedPassword) {
		return common.BadRequest("Current password is incorrect")
	}
	hashed, err := security.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hashed); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

type PictureUpload struct {
	Body        io.Reader
	Size        int64
	ContentType string
	Filename    string
}

func (s *UserService) UploadProfilePicture(ctx context.Context, userID string, pic PictureUpload) (*model.User, error) {
	if s.pictures == nil {
		return nil, common.NewError(common.ErrServiceUnavailable, "Profile picture uploads are not configured")
	}
	if !strings.HasPrefix(pic.ContentType, "image/") {
		return nil, common.BadRequest("Please upload an image file")
	}

	key := storage.ProfilePictureKey(userID, strings.ToLower(filepath.Ext(pic.Filename)))
	url, err := s.pictures.Put(ctx, key, pic.Body, pic.Size, pic.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store picture: %w", err)
	}
	if err := s.userRepo.UpdateProfilePicture(ctx, userID, url); err != nil {
		return nil, fmt.Errorf("failed to save picture url: %w", err)
	}
	return s.Me(ctx, userID)
}

// decodeRaw re-decodes an already split JSON object into a typed update.
func decodeRaw(raw map[string]json.RawMessage, dst interface{}) error {
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("re-encode update: %w", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return common.BadRequest("Invalid updates")
	}
	return nil
}
