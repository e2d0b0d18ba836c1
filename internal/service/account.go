package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/brightcoderske/Bright-Coders-Website/internal/config"
	"github.com/brightcoderske/Bright-Coders-Website/internal/model"
)

// ProfileUpdate holds optional profile changes. Nil fields are left as is.
type ProfileUpdate struct {
	FullName        *string
	Username        *string
	ProfileImageURL *string
}

// AccountService manages the signed-in admin's own account.
type AccountService struct {
	store  *config.Store
	stepUp *StepUpService
	logger *slog.Logger
}

func NewAccountService(store *config.Store, stepUp *StepUpService, logger *slog.Logger) *AccountService {
	return &AccountService{store: store, stepUp: stepUp, logger: logger}
}

// UpdateProfile applies p and returns the updated user.
func (s *AccountService) UpdateProfile(ctx context.Context, userID int64, p ProfileUpdate) (*model.User, error) {
	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p.FullName != nil && strings.TrimSpace(*p.FullName) != "" {
		u.FullName = strings.TrimSpace(*p.FullName)
	}
	if p.Username != nil {
		u.Username = strings.TrimSpace(*p.Username)
	}
	if p.ProfileImageURL != nil {
		u.ProfileImageURL = strings.TrimSpace(*p.ProfileImageURL)
	}
	if err := s.store.UpdateUserProfile(ctx, u.ID, u.FullName, u.Username, u.ProfileImageURL); err != nil {
		return nil, err
	}
	return s.store.GetUserByID(ctx, u.ID)
}

// ChangePassword replaces the password after checking the current one.
func (s *AccountService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !CheckPassword(u.PasswordHash, current) {
		return ErrWrongPassword
	}
	if len(next) < MinPasswordLength {
		return ErrWeakPassword
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.store.UpdateUserPassword(ctx, u.ID, hash); err != nil {
		return err
	}
	s.logger.Info("admin password changed", "user_id", u.ID)
	return nil
}

// SetTwoFactor turns email OTP sign-in on or off.
func (s *AccountService) SetTwoFactor(ctx context.Context, userID int64, enabled bool) (*model.User, error) {
	if err := s.store.SetUserTwoFactor(ctx, userID, enabled); err != nil {
		return nil, err
	}
	s.logger.Info("two-factor setting changed", "user_id", userID, "enabled", enabled)
	return s.store.GetUserByID(ctx, userID)
}

// DeleteAccount removes the admin account. It requires a fresh step-up and
// the current password, checked in that order.
func (s *AccountService) DeleteAccount(ctx context.Context, userID int64, password string) error {
	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.stepUp.RequireFresh(u); err != nil {
		return err
	}
	if password == "" {
		return ErrPasswordReq
	}
	if !CheckPassword(u.PasswordHash, password) {
		return ErrWrongPassword
	}
	if err := s.store.DeleteUser(ctx, u.ID); err != nil {
		return err
	}
	s.logger.Warn("admin account deleted", "user_id", u.ID)
	return nil
}
