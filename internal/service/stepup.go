package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/brightcoderske/Bright-Coders-Website/internal/config"
	"github.com/brightcoderske/Bright-Coders-Website/internal/mailer"
	"github.com/brightcoderske/Bright-Coders-Website/internal/metrics"
	"github.com/brightcoderske/Bright-Coders-Website/internal/model"
)

const (
	// ResendCooldown is the minimum gap between two step-up requests.
	ResendCooldown = 60 * time.Second
	// StepUpWindow is how long a successful step-up authorizes sensitive
	// actions.
	StepUpWindow = 10 * time.Minute
)

// StepUpService re-verifies an already signed-in admin before sensitive
// actions.
type StepUpService struct {
	store   *config.Store
	mail    mailer.Sender
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewStepUpService(store *config.Store, mail mailer.Sender, m *metrics.Metrics, logger *slog.Logger) *StepUpService {
	return &StepUpService{store: store, mail: mail, metrics: m, logger: logger, now: time.Now}
}

// Request opens a challenge and emails the code to u.
func (s *StepUpService) Request(ctx context.Context, u *model.User) error {
	now := s.now()
	if u.OTPLastSent != nil && now.Sub(*u.OTPLastSent) < ResendCooldown {
		s.metrics.AuthEvent("step_up", "cooldown")
		return ErrResendTooSoon
	}

	code, err := GenerateOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	if err := s.store.SaveStepUpOTP(ctx, u.ID, HashOTP(code), now.Add(OTPTTL), now); err != nil {
		return err
	}
	if err := sendCode(ctx, s.mail, s.metrics, s.logger, "step_up_otp", u.Email, code, mailer.StepUpOTP); err != nil {
		if cerr := s.store.ClearStepUpOTP(ctx, u.ID); cerr != nil {
			s.logger.Error("clear undelivered step-up otp", "user_id", u.ID, "error", cerr)
		}
		return err
	}
	s.metrics.AuthEvent("step_up", "requested")
	return nil
}

// Verify checks a submitted code against the open challenge. A wrong code
// consumes one of MaxOTPAttempts attempts.
func (s *StepUpService) Verify(ctx context.Context, userID int64, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrOTPRequired
	}

	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	switch {
	case !u.HasActiveChallenge() || u.OTPExpires == nil:
		return ErrNoActiveChallenge
	case u.OTPAttempts >= MaxOTPAttempts:
		s.metrics.AuthEvent("step_up", "too_many_attempts")
		return ErrTooManyAttempts
	case s.now().After(*u.OTPExpires):
		s.metrics.AuthEvent("step_up", "expired")
		return ErrChallengeExpired
	}

	if !OTPEqual(code, *u.OTPCode) {
		if err := s.store.IncrementStepUpAttempts(ctx, u.ID); err != nil {
			return err
		}
		s.metrics.AuthEvent("step_up", "rejected")
		return ErrInvalidOTP
	}

	if err := s.store.MarkStepUpVerified(ctx, u.ID, s.now()); err != nil {
		return err
	}
	s.metrics.AuthEvent("step_up", "verified")
	return nil
}

// RequireFresh reports whether u completed a step-up within StepUpWindow.
func (s *StepUpService) RequireFresh(u *model.User) error {
	if u.LastVerified == nil {
		return ErrStepUpRequired
	}
	if s.now().Sub(*u.LastVerified) > StepUpWindow {
		return ErrStepUpExpired
	}
	return nil
}
