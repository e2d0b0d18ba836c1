package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/brightcoderske/Bright-Coders-Website/internal/config"
	"github.com/brightcoderske/Bright-Coders-Website/internal/mailer"
	"github.com/brightcoderske/Bright-Coders-Website/internal/model"
	"github.com/brightcoderske/Bright-Coders-Website/internal/server/middleware"
	"github.com/brightcoderske/Bright-Coders-Website/internal/service"
)

const (
	testJWTSecret = "test-secret-for-handler-tests-0123456789"
	testPassword  = "supersecretpassword"
	testEmail     = "admin@example.com"
)

// captureMailer records outbound messages.
type captureMailer struct {
	mu   sync.Mutex
	sent []*mailer.Message
}

func (c *captureMailer) Send(_ context.Context, msg *mailer.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func (c *captureMailer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func (c *captureMailer) last(t *testing.T) *mailer.Message {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		t.Fatal("no email sent")
	}
	return c.sent[len(c.sent)-1]
}

var codePattern = regexp.MustCompile(`>(\d{6})<`)

// lastCode extracts the one-time code from the most recent email.
func (c *captureMailer) lastCode(t *testing.T) string {
	t.Helper()
	m := codePattern.FindStringSubmatch(c.last(t).HTML)
	if len(m) != 2 {
		t.Fatalf("no code in email body: %s", c.last(t).HTML)
	}
	return m[1]
}

// memStorage keeps uploads in memory.
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memStorage) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = b
	m.types[key] = contentType
	return "/uploads/" + key, nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStorage) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// testEnv holds shared state for handler integration tests.
type testEnv struct {
	store   *config.Store
	mail    *captureMailer
	files   *memStorage
	authSvc *service.AuthService
	router  chi.Router
	user    *model.User
}

// newTestEnv creates a fresh test environment with an in-memory config store
// and a Chi router with every handler mounted. Protected routes run behind
// asUser, which signs the request in as e.user, instead of the session
// middleware.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := config.NewStore("") // in-memory SQLite
	if err != nil {
		t.Fatalf("config.NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mail := &captureMailer{}
	files := newMemStorage()

	authSvc := service.NewAuthService(store, mail, nil, logger, testJWTSecret, time.Hour)
	stepUp := service.NewStepUpService(store, mail, nil, logger)
	account := service.NewAccountService(store, stepUp, logger)
	notifier := service.NewNotifier(mail, nil, logger, "alerts@example.com", "")
	regs := service.NewRegistrationService(store, notifier, logger)
	uploader := NewUploader(files, nil)
	cookies := middleware.CookiePolicy{}

	authH := NewAuthHandler(authSvc, uploader, cookies, logger)
	adminH := NewAdminHandler(account, cookies, logger)
	stepUpH := NewStepUpHandler(stepUp, logger)
	courseH := NewCourseHandler(store, logger)
	blogH := NewBlogHandler(store, logger)
	testimonialH := NewTestimonialHandler(store, uploader, notifier, logger)
	regH := NewRegistrationHandler(store, regs, logger)

	e := &testEnv{store: store, mail: mail, files: files, authSvc: authSvc}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/csrf-token", authH.CSRFToken)
		r.Post("/auth/register", authH.Register)
		r.Post("/auth/login", authH.Login)
		r.Post("/auth/verify-otp", authH.VerifyOTP)
		r.Post("/auth/logout", authH.Logout)

		r.Get("/courses/live", courseH.ListLive)
		r.Get("/blogs/live", blogH.ListLive)
		r.Get("/testimonials/live", testimonialH.ListLive)
		r.Post("/testimonials/submit", testimonialH.Submit)
		r.Post("/registration", regH.Submit)
		r.Get("/registration/verify/{regNumber}", regH.VerifyCertificate)

		r.Group(func(r chi.Router) {
			r.Use(e.asUser)

			r.Get("/auth/me", authH.Me)
			r.Post("/auth/upload-image", authH.UploadImage)

			r.Get("/admin/profile", adminH.GetProfile)
			r.Put("/admin/profile", adminH.UpdateProfile)
			r.Put("/admin/password", adminH.ChangePassword)
			r.Put("/admin/two-factor", adminH.SetTwoFactor)
			r.Delete("/admin/account", adminH.DeleteAccount)

			r.Post("/step-up/request", stepUpH.Request)
			r.Post("/step-up/verify", stepUpH.Verify)

			r.Get("/courses", courseH.List)
			r.Post("/courses", courseH.Create)
			r.Get("/courses/{id}", courseH.Get)
			r.Put("/courses/{id}", courseH.Update)
			r.Delete("/courses/{id}", courseH.Delete)
			r.Post("/courses/{id}/push", courseH.Push)
			r.Post("/courses/{id}/withdraw", courseH.Withdraw)
			r.Patch("/courses/{id}/featured", courseH.SetFeatured)

			r.Get("/blogs", blogH.List)
			r.Post("/blogs", blogH.Create)
			r.Get("/blogs/{id}", blogH.Get)
			r.Put("/blogs/{id}", blogH.Update)
			r.Delete("/blogs/{id}", blogH.Delete)
			r.Post("/blogs/{id}/push", blogH.Push)
			r.Post("/blogs/{id}/withdraw", blogH.Withdraw)

			r.Get("/testimonials", testimonialH.List)
			r.Delete("/testimonials/{id}", testimonialH.Delete)
			r.Post("/testimonials/{id}/approve", testimonialH.Approve)
			r.Post("/testimonials/{id}/hide", testimonialH.Hide)

			r.Get("/registration", regH.List)
			r.Patch("/registration/payment/{id}", regH.SetPayment)
			r.Patch("/registration/certificate/{id}", regH.IssueCertificate)
			r.Delete("/registration/{id}", regH.Delete)
			r.Get("/registration/download-receipt/{id}", regH.DownloadReceipt)
		})
	})
	e.router = r
	return e
}

// asUser reloads e.user and attaches it as the request principal.
func (e *testEnv) asUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if e.user == nil {
			writeError(w, http.StatusUnauthorized, "Not authenticated. Please sign in.")
			return
		}
		u, err := e.store.GetUserByID(r.Context(), e.user.ID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Session expired or invalid. Please sign in again.")
			return
		}
		ctx := context.WithValue(r.Context(), middleware.AuthPrincipalKey,
			&middleware.Principal{User: u, Source: middleware.SourceBearer})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// seedAdmin registers the admin account and signs requests in as it.
func (e *testEnv) seedAdmin(t *testing.T) *model.User {
	t.Helper()
	u, err := e.authSvc.Register(context.Background(), service.RegisterInput{
		FullName: "Test Admin",
		Email:    testEmail,
		Password: testPassword,
	})
	if err != nil {
		t.Fatalf("seedAdmin: %v", err)
	}
	e.user = u
	return u
}

// do executes an HTTP request against the test router and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func toJSON(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		t.Fatalf("toJSON: %v", err)
	}
	return buf
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Errorf("status = %d, want %d; body = %s", rr.Code, want, rr.Body.String())
	}
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decodeJSON: %v; body = %s", err, rr.Body.String())
	}
}

// errorBody decodes the standard error envelope.
func errorBody(t *testing.T, rr *httptest.ResponseRecorder) model.ErrorDetail {
	t.Helper()
	var resp model.ErrorResponse
	decodeJSON(t, rr, &resp)
	return resp.Error
}
