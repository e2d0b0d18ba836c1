package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightcoderske/Bright-Coders-Website/internal/model"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	u := env.register(t)

	token, err := env.auth.IssueSessionToken(u)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := env.auth.ValidateSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.False(t, claims.TwoFactor)

	got, err := env.auth.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestSessionTokenExpires(t *testing.T) {
	env := newTestEnv(t)
	u := env.register(t)

	token, err := env.auth.IssueSessionToken(u)
	require.NoError(t, err)

	env.clock.Advance(time.Hour + time.Second)
	_, err = env.auth.ValidateSessionToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateSessionToken_Rejects(t *testing.T) {
	env := newTestEnv(t)
	u := env.register(t)

	temp, err := env.auth.issueToken(u, true, TempTokenTTL)
	require.NoError(t, err)

	other := NewAuthService(env.store, env.mail, nil, env.auth.logger, "a-different-secret", time.Hour)
	foreign, err := other.IssueSessionToken(u)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"temp token":   temp,
		"garbage":      "garbage.token.here",
		"empty":        "",
		"wrong secret": foreign,
		"truncated":    temp[:len(temp)-4],
	} {
		t.Run(name, func(t *testing.T) {
			_, err := env.auth.ValidateSessionToken(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestAuthenticate_DeletedUser(t *testing.T) {
	env := newTestEnv(t)
	u := env.register(t)
	token, err := env.auth.IssueSessionToken(u)
	require.NoError(t, err)

	require.NoError(t, env.store.DeleteUser(context.Background(), u.ID))
	_, err = env.auth.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRegister_SingleAdmin(t *testing.T) {
	env := newTestEnv(t)
	u := env.register(t)
	assert.NotZero(t, u.ID)
	assert.True(t, strings.HasPrefix(u.PasswordHash, "$2"), "password must be stored as bcrypt")
	assert.True(t, CheckPassword(u.PasswordHash, testPassword))

	_, err := env.auth.Register(context.Background(), RegisterInput{
		FullName: "Second",
		Email:    "second@example.com",
		Password: testPassword,
	})
	assert.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestRegister_WeakPassword(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.auth.Register(context.Background(), RegisterInput{
		FullName: "Ada", Email: "a@example.com", Password: "short",
	})
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestLogin_WithoutTwoFactor(t *testing.T) {
	env := newTestEnv(t)
	u := env.register(t)

	res, err := env.auth.Login(context.Background(), "ADMIN@example.com", testPassword)
	require.NoError(t, err)
	assert.False(t, res.TwoFactorRequired)
	assert.NotEmpty(t, res.Token)
	assert.Empty(t, res.TempToken)
	assert.Equal(t, 0, env.mail.count(), "no email without two-factor")

	got := env.user(t, u.ID)
	require.NotNil(t, got.LastLoginAt)
	assert.True(t, got.LastLoginAt.Equal(env.clock.Now()))
}

func TestLogin_GenericFailure(t *testing.T) {
	env := newTestEnv(t)
	env.register(t)

	_, errWrongPass := env.auth.Login(context.Background(), "admin@example.com", "wrong-password")
	_, errNoUser := env.auth.Login(context.Background(), "nobody@example.com", testPassword)

	assert.ErrorIs(t, errWrongPass, ErrInvalidCredentials)
	assert.ErrorIs(t, errNoUser, ErrInvalidCredentials)
	assert.Equal(t, errWrongPass.Error(), errNoUser.Error())
}

func enableTwoFactor(t *testing.T, env *testEnv, u *model.User) {
	t.Helper()
	require.NoError(t, env.store.SetUserTwoFactor(context.Background(), u.ID, true))
}

func TestLogin_TwoFactorFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t)
	enableTwoFactor(t, env, u)

	res, err := env.auth.Login(ctx, "admin@example.com", testPassword)
	require.NoError(t, err)
	assert.True(t, res.TwoFactorRequired)
	assert.Empty(t, res.Token)
	require.NotEmpty(t, res.TempToken)

	msg := env.mail.last(t)
	assert.Equal(t, []string{"admin@example.com"}, msg.To)
	code := env.mail.lastCode(t)

	stored := env.user(t, u.ID)
	require.NotNil(t, stored.TwoFactorCode)
	assert.NotEqual(t, code, *stored.TwoFactorCode, "code must be stored hashed")
	require.NotNil(t, stored.TwoFactorExpires)
	assert.True(t, stored.TwoFactorExpires.Equal(env.clock.Now().Add(OTPTTL)))

	// A temp token is not a session.
	_, err = env.auth.ValidateSessionToken(res.TempToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	done, err := env.auth.VerifyLoginOTP(ctx, res.TempToken, code)
	require.NoError(t, err)
	require.NotEmpty(t, done.Token)
	_, err = env.auth.ValidateSessionToken(done.Token)
	assert.NoError(t, err)

	// The code is single-use.
	_, err = env.auth.VerifyLoginOTP(ctx, res.TempToken, code)
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestVerifyLoginOTP_RejectsSessionToken(t *testing.T) {
	env := newTestEnv(t)
	u := env.register(t)
	enableTwoFactor(t, env, u)
	_, err := env.auth.Login(context.Background(), "admin@example.com", testPassword)
	require.NoError(t, err)

	session, err := env.auth.IssueSessionToken(u)
	require.NoError(t, err)
	_, err = env.auth.VerifyLoginOTP(context.Background(), session, env.mail.lastCode(t))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyLoginOTP_Expired(t *testing.T) {
	env := newTestEnv(t)
	u := env.register(t)
	enableTwoFactor(t, env, u)
	res, err := env.auth.Login(context.Background(), "admin@example.com", testPassword)
	require.NoError(t, err)
	code := env.mail.lastCode(t)

	// The stored code expires while the temp token (same lifetime) is
	// checked first; both are past due here.
	env.clock.Advance(OTPTTL + time.Second)
	_, err = env.auth.VerifyLoginOTP(context.Background(), res.TempToken, code)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyLoginOTP_CodeExpiredTokenValid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t)
	enableTwoFactor(t, env, u)
	res, err := env.auth.Login(ctx, "admin@example.com", testPassword)
	require.NoError(t, err)
	code := env.mail.lastCode(t)

	past := env.clock.Now().Add(-time.Second)
	require.NoError(t, env.store.SaveLoginOTP(ctx, u.ID, HashOTP(code), past))

	_, err = env.auth.VerifyLoginOTP(ctx, res.TempToken, code)
	assert.ErrorIs(t, err, ErrInvalidOTP)
	assert.Nil(t, env.user(t, u.ID).TwoFactorCode, "expired code is discarded")
}

func TestVerifyLoginOTP_ExpiredClearFails(t *testing.T) {
	dir := t.TempDir()
	env := newTestEnvAt(t, dir)
	ctx := context.Background()
	u := env.register(t)
	enableTwoFactor(t, env, u)
	res, err := env.auth.Login(ctx, "admin@example.com", testPassword)
	require.NoError(t, err)
	code := env.mail.lastCode(t)
	require.NoError(t, env.store.SaveLoginOTP(ctx, u.ID, HashOTP(code), env.clock.Now().Add(-time.Second)))

	// Fail only the statement that discards the code.
	db, err := sql.Open("sqlite", filepath.Join(dir, "brightcoders.db"))
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`CREATE TRIGGER fail_clear_login_otp BEFORE UPDATE OF two_factor_code ON users
		WHEN NEW.two_factor_code IS NULL BEGIN SELECT RAISE(ABORT, 'disk I/O error'); END`)
	require.NoError(t, err)

	_, err = env.auth.VerifyLoginOTP(ctx, res.TempToken, code)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidOTP, "store failures surface instead of reading as a bad code")
}

func TestVerifyLoginOTP_AttemptCap(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t)
	enableTwoFactor(t, env, u)
	res, err := env.auth.Login(ctx, "admin@example.com", testPassword)
	require.NoError(t, err)
	code := env.mail.lastCode(t)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	for i := 0; i < MaxOTPAttempts; i++ {
		_, err := env.auth.VerifyLoginOTP(ctx, res.TempToken, wrong)
		assert.ErrorIs(t, err, ErrInvalidOTP)
	}

	// After the cap the correct code no longer works.
	_, err = env.auth.VerifyLoginOTP(ctx, res.TempToken, code)
	assert.ErrorIs(t, err, ErrInvalidOTP)
	assert.Nil(t, env.user(t, u.ID).TwoFactorCode)
}

func TestVerifyLoginOTP_MissingCode(t *testing.T) {
	env := newTestEnv(t)
	u := env.register(t)
	enableTwoFactor(t, env, u)
	res, err := env.auth.Login(context.Background(), "admin@example.com", testPassword)
	require.NoError(t, err)

	_, err = env.auth.VerifyLoginOTP(context.Background(), res.TempToken, "  ")
	assert.ErrorIs(t, err, ErrOTPRequired)
}

func TestLogin_MailFailure(t *testing.T) {
	env := newTestEnv(t)
	u := env.register(t)
	enableTwoFactor(t, env, u)
	env.mail.err = errMailDown

	_, err := env.auth.Login(context.Background(), "admin@example.com", testPassword)
	assert.ErrorIs(t, err, ErrOTPDelivery)
}

func TestGenerateOTP(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := GenerateOTP()
		require.NoError(t, err)
		require.Len(t, code, 6)
		assert.NotEqual(t, byte('0'), code[0], "code must be in [100000, 999999]")
		seen[code] = true
	}
	assert.Greater(t, len(seen), 190, "codes should rarely repeat")
}

func TestOTPEqual(t *testing.T) {
	h := HashOTP("123456")
	assert.True(t, OTPEqual("123456", h))
	assert.False(t, OTPEqual("123457", h))
	assert.False(t, OTPEqual("", h))
	assert.Len(t, h, 64)
}
