package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/brightcoderske/Bright-Coders-Website/internal/config"
	"github.com/brightcoderske/Bright-Coders-Website/internal/mailer"
	"github.com/brightcoderske/Bright-Coders-Website/internal/metrics"
	"github.com/brightcoderske/Bright-Coders-Website/internal/model"
)

const testPassword = "correct-horse-battery"

// captureSender records every message instead of sending it.
type captureSender struct {
	mu   sync.Mutex
	sent []*mailer.Message
	err  error
}

func (c *captureSender) Send(_ context.Context, msg *mailer.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

func (c *captureSender) last(t *testing.T) *mailer.Message {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.sent, "no email sent")
	return c.sent[len(c.sent)-1]
}

func (c *captureSender) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

var codePattern = regexp.MustCompile(`>(\d{6})<`)

// lastCode extracts the one-time code from the most recent email.
func (c *captureSender) lastCode(t *testing.T) string {
	t.Helper()
	m := codePattern.FindStringSubmatch(c.last(t).HTML)
	require.Len(t, m, 2, "no code in email body")
	return m[1]
}

// clock is a settable time source.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testEnv struct {
	store    *config.Store
	mail     *captureSender
	clock    *clock
	auth     *AuthService
	stepUp   *StepUpService
	account  *AccountService
	notifier *Notifier
	regs     *RegistrationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvAt(t, "")
}

// newTestEnvAt is newTestEnv over a SQLite store in dataDir; "" keeps it in
// memory.
func newTestEnvAt(t *testing.T, dataDir string) *testEnv {
	t.Helper()
	store, err := config.NewStore(dataDir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mail := &captureSender{}
	clk := newClock()
	m := metrics.New()

	auth := NewAuthService(store, mail, m, logger, "test-secret-key-for-jwt", time.Hour)
	auth.now = clk.Now
	stepUp := NewStepUpService(store, mail, m, logger)
	stepUp.now = clk.Now
	notifier := NewNotifier(mail, m, logger, "admin-alerts@example.com", "Alerts <alerts@example.com>")
	regs := NewRegistrationService(store, notifier, logger)
	regs.now = clk.Now

	return &testEnv{
		store:    store,
		mail:     mail,
		clock:    clk,
		auth:     auth,
		stepUp:   stepUp,
		account:  NewAccountService(store, stepUp, logger),
		notifier: notifier,
		regs:     regs,
	}
}

func (e *testEnv) register(t *testing.T) *model.User {
	t.Helper()
	u, err := e.auth.Register(context.Background(), RegisterInput{
		FullName: "Ada Admin",
		Email:    "admin@example.com",
		Password: testPassword,
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) user(t *testing.T, id int64) *model.User {
	t.Helper()
	u, err := e.store.GetUserByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

var errMailDown = errors.New("mail provider unavailable")
