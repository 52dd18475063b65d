package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/academic-planner-api/internal/models"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id, displayName string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
	Delete(ctx context.Context, id string) error
}

// UserService handles account self-service: profile edits, password changes and removal.
type UserService struct {
	repo      userRepository
	cache     *CacheService
	onDelete  []func(userID string)
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService. onDelete hooks run after an account is
// removed.
func NewUserService(repo userRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger, onDelete ...func(userID string)) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, cache: cache, onDelete: onDelete, validator: validate, logger: logger}
}

// UpdateProfile changes the display name.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.UserInfo, error) {
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid profile payload")
	}
	if err := s.repo.UpdateProfile(ctx, userID, req.DisplayName); err != nil {
		return nil, repoError(err, "user not found", "failed to update profile")
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, repoError(err, "user not found", "failed to load user")
	}
	return &models.UserInfo{ID: user.ID, Email: user.Email, DisplayName: user.DisplayName}, nil
}

// ChangePassword verifies the current password, stores the new one and signs out every session.
func (s *UserService) ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid password payload")
	}
	if _, err := s.authenticate(ctx, userID, req.CurrentPassword); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Internal(err, "failed to hash password")
	}
	if err := s.repo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return repoError(err, "user not found", "failed to update password")
	}
	if err := s.repo.RevokeUserRefreshTokens(ctx, userID); err != nil {
		s.logger.Warn("failed to revoke sessions after password change", zap.String("user_id", userID), zap.Error(err))
	}
	return nil
}

// Delete removes the account and everything it owns.
func (s *UserService) Delete(ctx context.Context, userID string, req models.DeleteAccountRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "password confirmation required")
	}
	if _, err := s.authenticate(ctx, userID, req.Password); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID); err != nil {
		return repoError(err, "user not found", "failed to delete account")
	}
	s.cache.InvalidateUser(ctx, userID)
	for _, hook := range s.onDelete {
		hook(userID)
	}
	s.logger.Info("account deleted", zap.String("user_id", userID))
	return nil
}

func (s *UserService) authenticate(ctx context.Context, userID, password string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, repoError(err, "user not found", "failed to load user")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "current password is incorrect")
	}
	return user, nil
}
