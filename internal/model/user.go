package model

import "time"

// User is the academy administrator. Exactly one row may ever exist. The
// two_factor_* columns hold the login OTP; the otp_* columns and
// LastVerified hold the step-up challenge.
type User struct {
	ID                int64      `json:"id" db:"id"`
	FullName          string     `json:"full_name" db:"full_name"`
	Email             string     `json:"email" db:"email"`
	PasswordHash      string     `json:"-" db:"password_hash"`
	Username          string     `json:"username" db:"username"`
	ProfileImageURL   string     `json:"profile_image_url" db:"profile_image_url"`
	TwoFactorEnabled  bool       `json:"two_factor_enabled" db:"two_factor_enabled"`
	TwoFactorCode     *string    `json:"-" db:"two_factor_code"`
	TwoFactorExpires  *time.Time `json:"-" db:"two_factor_expires"`
	TwoFactorAttempts int        `json:"-" db:"two_factor_attempts"`
	OTPCode           *string    `json:"-" db:"otp_code"`
	OTPExpires        *time.Time `json:"-" db:"otp_expires"`
	OTPAttempts       int        `json:"-" db:"otp_attempts"`
	OTPLastSent       *time.Time `json:"-" db:"otp_last_sent"`
	LastVerified      *time.Time `json:"last_verified,omitempty" db:"last_verified"`
	LastLoginAt       *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// HasActiveChallenge reports whether a step-up code is waiting to be verified.
func (u *User) HasActiveChallenge() bool {
	return u.OTPCode != nil && *u.OTPCode != ""
}
