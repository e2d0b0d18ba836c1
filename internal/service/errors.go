package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrRegistrationClosed = errors.New("registration is closed: an admin account already exists")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")

	ErrOTPRequired   = errors.New("verification code is required")
	ErrInvalidOTP    = errors.New("invalid verification code")
	ErrOTPDelivery   = errors.New("could not deliver verification code")
	ErrPasswordReq   = errors.New("password is required")
	ErrWrongPassword = errors.New("invalid password")

	ErrNoActiveChallenge = errors.New("no active verification request")
	ErrTooManyAttempts   = errors.New("too many failed attempts")
	ErrChallengeExpired  = errors.New("verification code expired")
	ErrResendTooSoon     = errors.New("please wait before requesting another code")
	ErrStepUpRequired    = errors.New("recent verification required")
	ErrStepUpExpired     = errors.New("verification expired, please verify again")

	ErrNotPaid              = errors.New("registration payment is not confirmed")
	ErrCertificateNotIssued = errors.New("certificate not issued")
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
)
