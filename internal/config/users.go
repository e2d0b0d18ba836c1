package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brightcoderske/Bright-Coders-Website/internal/model"
)

const userColumns = `id, full_name, email, password_hash, username, profile_image_url,
	two_factor_enabled, two_factor_code, two_factor_expires, two_factor_attempts,
	otp_code, otp_expires, otp_attempts, otp_last_sent, last_verified, last_login_at,
	created_at, updated_at`

// ---------------------------------------------------------------------------
// Account
// ---------------------------------------------------------------------------

// CountUsers returns the number of admin accounts.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM users"); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// CreateUser inserts the admin account. A unique violation on either the
// email or the singleton column is reported as ErrConflict.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt = now
	u.UpdatedAt = now

	const q = `INSERT INTO users
		(full_name, email, password_hash, username, profile_image_url, two_factor_enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`

	err := s.db.GetContext(ctx, &u.ID, s.q(q),
		u.FullName, u.Email, u.PasswordHash, u.Username, u.ProfileImageURL, u.TwoFactorEnabled, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByID returns the user with the given ID.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := s.db.GetContext(ctx, &u, s.q("SELECT "+userColumns+" FROM users WHERE id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// GetUserByEmail looks a user up by email, case-insensitively.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	if err := s.db.GetContext(ctx, &u, s.q("SELECT "+userColumns+" FROM users WHERE email = ?"), email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// ListUsers returns every admin account (at most one in practice).
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := s.db.SelectContext(ctx, &users, "SELECT "+userColumns+" FROM users ORDER BY id"); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateUserLastLogin records a successful sign-in.
func (s *Store) UpdateUserLastLogin(ctx context.Context, id int64, at time.Time) error {
	return s.execUser(ctx, "update last login",
		"UPDATE users SET last_login_at = ?, updated_at = ? WHERE id = ?", at.UTC(), at.UTC(), id)
}

// UpdateUserProfile replaces the editable profile fields.
func (s *Store) UpdateUserProfile(ctx context.Context, id int64, fullName, username, profileImageURL string) error {
	now := time.Now().UTC()
	return s.execUser(ctx, "update profile",
		"UPDATE users SET full_name = ?, username = ?, profile_image_url = ?, updated_at = ? WHERE id = ?",
		fullName, username, profileImageURL, now, id)
}

// UpdateUserPassword stores a new password hash.
func (s *Store) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	now := time.Now().UTC()
	return s.execUser(ctx, "update password",
		"UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?", passwordHash, now, id)
}

// SetUserTwoFactor enables or disables login OTPs. Disabling also discards
// any pending login code.
func (s *Store) SetUserTwoFactor(ctx context.Context, id int64, enabled bool) error {
	now := time.Now().UTC()
	if enabled {
		return s.execUser(ctx, "enable two-factor",
			"UPDATE users SET two_factor_enabled = ?, updated_at = ? WHERE id = ?", true, now, id)
	}
	return s.execUser(ctx, "disable two-factor",
		`UPDATE users SET two_factor_enabled = ?, two_factor_code = NULL, two_factor_expires = NULL,
			two_factor_attempts = 0, updated_at = ? WHERE id = ?`, false, now, id)
}

// DeleteUser removes the admin account.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	return s.execUser(ctx, "delete user", "DELETE FROM users WHERE id = ?", id)
}

// ---------------------------------------------------------------------------
// Login OTP
// ---------------------------------------------------------------------------

// SaveLoginOTP stores a fresh login code and resets its attempt counter.
func (s *Store) SaveLoginOTP(ctx context.Context, id int64, code string, expires time.Time) error {
	return s.execUser(ctx, "save login otp",
		`UPDATE users SET two_factor_code = ?, two_factor_expires = ?, two_factor_attempts = 0
			WHERE id = ?`, code, expires.UTC(), id)
}

// IncrementLoginOTPAttempts records a failed login code submission.
func (s *Store) IncrementLoginOTPAttempts(ctx context.Context, id int64) error {
	return s.execUser(ctx, "increment login otp attempts",
		"UPDATE users SET two_factor_attempts = two_factor_attempts + 1 WHERE id = ?", id)
}

// ClearLoginOTP discards the login code.
func (s *Store) ClearLoginOTP(ctx context.Context, id int64) error {
	return s.execUser(ctx, "clear login otp",
		`UPDATE users SET two_factor_code = NULL, two_factor_expires = NULL, two_factor_attempts = 0
			WHERE id = ?`, id)
}

// ---------------------------------------------------------------------------
// Step-up challenge
// ---------------------------------------------------------------------------

// SaveStepUpOTP opens a new step-up challenge with zero attempts.
func (s *Store) SaveStepUpOTP(ctx context.Context, id int64, code string, expires, sentAt time.Time) error {
	return s.execUser(ctx, "save step-up otp",
		`UPDATE users SET otp_code = ?, otp_expires = ?, otp_attempts = 0, otp_last_sent = ?
			WHERE id = ?`, code, expires.UTC(), sentAt.UTC(), id)
}

// ClearStepUpOTP withdraws an open challenge, including its send time, so a
// code that never reached the admin does not hold a resend cooldown.
func (s *Store) ClearStepUpOTP(ctx context.Context, id int64) error {
	return s.execUser(ctx, "clear step-up otp",
		`UPDATE users SET otp_code = NULL, otp_expires = NULL, otp_attempts = 0, otp_last_sent = NULL
			WHERE id = ?`, id)
}

// IncrementStepUpAttempts records a failed step-up code submission.
func (s *Store) IncrementStepUpAttempts(ctx context.Context, id int64) error {
	return s.execUser(ctx, "increment step-up attempts",
		"UPDATE users SET otp_attempts = otp_attempts + 1 WHERE id = ?", id)
}

// MarkStepUpVerified closes the challenge and stamps last_verified.
func (s *Store) MarkStepUpVerified(ctx context.Context, id int64, at time.Time) error {
	return s.execUser(ctx, "mark step-up verified",
		`UPDATE users SET last_verified = ?, otp_code = NULL, otp_expires = NULL, otp_attempts = 0
			WHERE id = ?`, at.UTC(), id)
}

func (s *Store) execUser(ctx context.Context, op, query string, args ...interface{}) error {
	result, err := s.db.ExecContext(ctx, s.q(query), args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return checkAffected(result.RowsAffected())
}
