package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/brightcoderske/Bright-Coders-Website/internal/config"
	"github.com/brightcoderske/Bright-Coders-Website/internal/mailer"
	"github.com/brightcoderske/Bright-Coders-Website/internal/metrics"
	"github.com/brightcoderske/Bright-Coders-Website/internal/model"
)

const (
	// BcryptCost is the work factor for stored password hashes.
	BcryptCost = 12
	// MinPasswordLength applies to registration and password changes.
	MinPasswordLength = 8
	// DefaultSessionTTL is the lifetime of a session token.
	DefaultSessionTTL = time.Hour
	// TempTokenTTL is the lifetime of the token that bridges password and
	// OTP during two-factor sign-in.
	TempTokenTTL = 5 * time.Minute

	tokenIssuer = "brightcoders"
)

// Claims is the JWT payload. TwoFactor marks a temp token that is only
// accepted by the OTP verification step.
type Claims struct {
	UserID    int64  `json:"id"`
	Email     string `json:"email"`
	TwoFactor bool   `json:"twoFactor,omitempty"`
	jwt.RegisteredClaims
}

// LoginResult is the outcome of a sign-in step. Exactly one of Token or
// TempToken is set.
type LoginResult struct {
	User              *model.User
	Token             string
	TwoFactorRequired bool
	TempToken         string
}

// RegisterInput carries the fields needed to create the admin account.
type RegisterInput struct {
	FullName        string
	Email           string
	Password        string
	ProfileImageURL string
}

// AuthService owns passwords, tokens and the two-factor login flow.
type AuthService struct {
	store      *config.Store
	mail       mailer.Sender
	metrics    *metrics.Metrics
	logger     *slog.Logger
	jwtSecret  []byte
	sessionTTL time.Duration
	now        func() time.Time

	// dummyHash keeps unknown-email logins as slow as wrong-password ones.
	dummyOnce sync.Once
	dummyHash []byte
}

func NewAuthService(store *config.Store, mail mailer.Sender, m *metrics.Metrics, logger *slog.Logger, jwtSecret string, sessionTTL time.Duration) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &AuthService{
		store:      store,
		mail:       mail,
		metrics:    m,
		logger:     logger,
		jwtSecret:  []byte(jwtSecret),
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// SessionTTL returns the configured session lifetime.
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// ---------------------------------------------------------------------------
// Passwords
// ---------------------------------------------------------------------------

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ---------------------------------------------------------------------------
// Registration and login
// ---------------------------------------------------------------------------

// Register creates the single admin account. It fails with
// ErrRegistrationClosed once any account exists.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	n, err := s.store.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrRegistrationClosed
	}
	if len(in.Password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		FullName:        strings.TrimSpace(in.FullName),
		Email:           in.Email,
		PasswordHash:    hash,
		ProfileImageURL: strings.TrimSpace(in.ProfileImageURL),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, config.ErrConflict) {
			// Lost a race with a concurrent registration.
			return nil, ErrRegistrationClosed
		}
		return nil, err
	}
	s.logger.Info("admin account registered", "user_id", u.ID)
	return u, nil
}

// Login checks credentials. With two-factor disabled it returns a session
// token; otherwise it emails a code and returns a temp token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			s.dummyOnce.Do(func() {
				s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("brightcoders-timing"), BcryptCost)
			})
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			s.metrics.AuthEvent("login", "rejected")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !CheckPassword(u.PasswordHash, password) {
		s.metrics.AuthEvent("login", "rejected")
		return nil, ErrInvalidCredentials
	}

	if !u.TwoFactorEnabled {
		return s.completeLogin(ctx, u)
	}

	code, err := GenerateOTP()
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}
	now := s.now()
	if err := s.store.SaveLoginOTP(ctx, u.ID, HashOTP(code), now.Add(OTPTTL)); err != nil {
		return nil, err
	}
	if err := s.sendCode(ctx, "login_otp", u.Email, code, mailer.LoginOTP); err != nil {
		return nil, err
	}

	temp, err := s.issueToken(u, true, TempTokenTTL)
	if err != nil {
		return nil, err
	}
	s.metrics.AuthEvent("login", "otp_sent")
	return &LoginResult{User: u, TwoFactorRequired: true, TempToken: temp}, nil
}

// VerifyLoginOTP completes a two-factor sign-in. Every failure looks the same
// to the caller; the code is discarded after MaxOTPAttempts wrong guesses.
func (s *AuthService) VerifyLoginOTP(ctx context.Context, tempToken, code string) (*LoginResult, error) {
	claims, err := s.parseToken(tempToken)
	if err != nil || !claims.TwoFactor {
		return nil, ErrInvalidToken
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrOTPRequired
	}

	u, err := s.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if u.TwoFactorCode == nil || u.TwoFactorExpires == nil || u.TwoFactorAttempts >= MaxOTPAttempts {
		s.metrics.AuthEvent("login_otp", "rejected")
		return nil, ErrInvalidOTP
	}
	if s.now().After(*u.TwoFactorExpires) {
		if err := s.store.ClearLoginOTP(ctx, u.ID); err != nil {
			return nil, err
		}
		s.metrics.AuthEvent("login_otp", "expired")
		return nil, ErrInvalidOTP
	}
	if !OTPEqual(code, *u.TwoFactorCode) {
		if u.TwoFactorAttempts+1 >= MaxOTPAttempts {
			if err := s.store.ClearLoginOTP(ctx, u.ID); err != nil {
				return nil, err
			}
			s.logger.Warn("login code discarded after too many attempts", "user_id", u.ID)
		} else if err := s.store.IncrementLoginOTPAttempts(ctx, u.ID); err != nil {
			return nil, err
		}
		s.metrics.AuthEvent("login_otp", "rejected")
		return nil, ErrInvalidOTP
	}

	if err := s.store.ClearLoginOTP(ctx, u.ID); err != nil {
		return nil, err
	}
	return s.completeLogin(ctx, u)
}

func (s *AuthService) completeLogin(ctx context.Context, u *model.User) (*LoginResult, error) {
	now := s.now()
	if err := s.store.UpdateUserLastLogin(ctx, u.ID, now); err != nil {
		return nil, err
	}
	u.LastLoginAt = &now

	token, err := s.issueToken(u, false, s.sessionTTL)
	if err != nil {
		return nil, err
	}
	s.metrics.AuthEvent("login", "success")
	return &LoginResult{User: u, Token: token}, nil
}

type codeMessage func(to, code string, ttl time.Duration) (*mailer.Message, error)

func (s *AuthService) sendCode(ctx context.Context, kind, to, code string, build codeMessage) error {
	return sendCode(ctx, s.mail, s.metrics, s.logger, kind, to, code, build)
}

func sendCode(ctx context.Context, mail mailer.Sender, m *metrics.Metrics, logger *slog.Logger, kind, to, code string, build codeMessage) error {
	msg, err := build(to, code, OTPTTL)
	if err == nil {
		err = mail.Send(ctx, msg)
	}
	m.Email(kind, err)
	if err != nil {
		logger.Error("send verification code", "kind", kind, "error", err)
		return fmt.Errorf("%w: %v", ErrOTPDelivery, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Tokens
// ---------------------------------------------------------------------------

// IssueSessionToken signs a session token for u.
func (s *AuthService) IssueSessionToken(u *model.User) (string, error) {
	return s.issueToken(u, false, s.sessionTTL)
}

// ValidateSessionToken verifies a session token. Temp tokens are rejected.
func (s *AuthService) ValidateSessionToken(tokenStr string) (*Claims, error) {
	claims, err := s.parseToken(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.TwoFactor {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate resolves a session token to the current user.
func (s *AuthService) Authenticate(ctx context.Context, tokenStr string) (*model.User, error) {
	claims, err := s.ValidateSessionToken(tokenStr)
	if err != nil {
		return nil, err
	}
	u, err := s.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return u, nil
}

func (s *AuthService) issueToken(u *model.User, twoFactor bool, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:    u.ID,
		Email:     u.Email,
		TwoFactor: twoFactor,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    tokenIssuer,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func (s *AuthService) parseToken(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
