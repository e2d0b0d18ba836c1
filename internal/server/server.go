package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/brightcoderske/Bright-Coders-Website/internal/config"
	"github.com/brightcoderske/Bright-Coders-Website/internal/handler"
	"github.com/brightcoderske/Bright-Coders-Website/internal/mailer"
	"github.com/brightcoderske/Bright-Coders-Website/internal/metrics"
	"github.com/brightcoderske/Bright-Coders-Website/internal/server/middleware"
	"github.com/brightcoderske/Bright-Coders-Website/internal/service"
	"github.com/brightcoderske/Bright-Coders-Website/internal/storage"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	MaxBodySize     int64 // bytes

	// Production switches cookies to Secure/SameSite=None and enables HSTS.
	Production bool

	JWTSecret  string
	SessionTTL time.Duration

	// AdminEmail receives new-testimonial and new-registration alerts.
	AdminEmail string
	AlertsFrom string

	// UploadsDir is served at /uploads when images are stored on local disk.
	UploadsDir string

	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Only set it behind a reverse proxy that overwrites those headers;
	// otherwise rate limits key on the socket address.
	TrustProxy bool

	// MetricsToken guards /metrics with a bearer token. When empty the
	// endpoint is not served.
	MetricsToken string
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            5000,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"http://localhost:5173", "https://*.vercel.app"},
		MaxBodySize:     10 * 1024 * 1024, // 10MB
		SessionTTL:      service.DefaultSessionTTL,
	}
}

// Deps are the external resources the server talks to.
type Deps struct {
	Store   *config.Store
	Mailer  mailer.Sender
	Storage storage.Storage
	Metrics *metrics.Metrics
}

// Server is the top-level HTTP server. It owns the Chi router and the
// services behind it.
type Server struct {
	cfg        Config
	deps       Deps
	router     chi.Router
	authSvc    *service.AuthService
	stepUpSvc  *service.StepUpService
	accountSvc *service.AccountService
	regSvc     *service.RegistrationService
	notifier   *service.Notifier
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all services, routes and middleware, and
// returns it ready to listen. Call ListenAndServe to start accepting
// connections.
func New(cfg Config, deps Deps, logger *slog.Logger) *Server {
	s := &Server{cfg: cfg, deps: deps, logger: logger}

	s.authSvc = service.NewAuthService(deps.Store, deps.Mailer, deps.Metrics, logger, cfg.JWTSecret, cfg.SessionTTL)
	s.stepUpSvc = service.NewStepUpService(deps.Store, deps.Mailer, deps.Metrics, logger)
	s.accountSvc = service.NewAccountService(deps.Store, s.stepUpSvc, logger)
	s.notifier = service.NewNotifier(deps.Mailer, deps.Metrics, logger, cfg.AdminEmail, cfg.AlertsFrom)
	s.regSvc = service.NewRegistrationService(deps.Store, s.notifier, logger)

	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()
	cookies := middleware.CookiePolicy{Secure: s.cfg.Production}

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	if s.cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Logger(s.logger, s.deps.Metrics))
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecureHeaders(s.cfg.Production))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.CSRFHeaderName, "X-Request-ID", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if s.cfg.MaxBodySize > 0 {
		r.Use(chimw.RequestSize(s.cfg.MaxBodySize))
	}
	r.Use(chimw.Compress(5, "application/json", "text/plain"))

	// --- Health checks and metrics ---
	r.Get("/", s.handleRoot)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	if s.cfg.MetricsToken != "" {
		r.With(middleware.RequireToken(s.cfg.MetricsToken)).Handle("/metrics", s.deps.Metrics.Handler())
	}

	// --- Locally stored uploads ---
	if s.cfg.UploadsDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads", noDirListing(http.FileServer(http.Dir(s.cfg.UploadsDir)))))
	}

	uploader := handler.NewUploader(s.deps.Storage, s.deps.Metrics)
	authHandler := handler.NewAuthHandler(s.authSvc, uploader, cookies, s.logger)
	adminHandler := handler.NewAdminHandler(s.accountSvc, cookies, s.logger)
	stepUpHandler := handler.NewStepUpHandler(s.stepUpSvc, s.logger)
	courseHandler := handler.NewCourseHandler(s.deps.Store, s.logger)
	blogHandler := handler.NewBlogHandler(s.deps.Store, s.logger)
	testimonialHandler := handler.NewTestimonialHandler(s.deps.Store, uploader, s.notifier, s.logger)
	registrationHandler := handler.NewRegistrationHandler(s.deps.Store, s.regSvc, s.logger)

	// protected mounts the session check and CSRF enforcement on a group.
	protected := func(r chi.Router) {
		r.Use(middleware.Authenticate(s.authSvc, s.logger))
		r.Use(middleware.CSRF)
	}

	// --- API routes ---
	r.Route("/api", func(r chi.Router) {
		r.Get("/csrf-token", authHandler.CSRFToken)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/logout", authHandler.Logout)

			// Password and OTP submissions share one limiter.
			r.Group(func(r chi.Router) {
				r.Use(middleware.LoginRateLimit())
				r.Post("/login", authHandler.Login)
				r.Post("/verify-otp", authHandler.VerifyOTP)
			})

			r.Group(func(r chi.Router) {
				protected(r)
				r.Get("/me", authHandler.Me)
				r.Post("/upload-image", authHandler.UploadImage)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			protected(r)
			r.Get("/profile", adminHandler.GetProfile)
			r.Put("/profile", adminHandler.UpdateProfile)
			r.Put("/password", adminHandler.ChangePassword)
			r.Put("/two-factor", adminHandler.SetTwoFactor)
			r.Delete("/account", adminHandler.DeleteAccount)
		})

		r.Route("/step-up", func(r chi.Router) {
			protected(r)
			r.Use(middleware.LoginRateLimit())
			r.Post("/request", stepUpHandler.Request)
			r.Post("/verify", stepUpHandler.Verify)
		})

		r.Route("/courses", func(r chi.Router) {
			r.Get("/live", courseHandler.ListLive)

			r.Group(func(r chi.Router) {
				protected(r)
				r.Get("/", courseHandler.List)
				r.Post("/", courseHandler.Create)
				r.Get("/{id}", courseHandler.Get)
				r.Put("/{id}", courseHandler.Update)
				r.Delete("/{id}", courseHandler.Delete)
				r.Post("/{id}/push", courseHandler.Push)
				r.Post("/{id}/withdraw", courseHandler.Withdraw)
				r.Patch("/{id}/featured", courseHandler.SetFeatured)
			})
		})

		r.Route("/blogs", func(r chi.Router) {
			r.Get("/live", blogHandler.ListLive)

			r.Group(func(r chi.Router) {
				protected(r)
				r.Get("/", blogHandler.List)
				r.Post("/", blogHandler.Create)
				r.Get("/{id}", blogHandler.Get)
				r.Put("/{id}", blogHandler.Update)
				r.Delete("/{id}", blogHandler.Delete)
				r.Post("/{id}/push", blogHandler.Push)
				r.Post("/{id}/withdraw", blogHandler.Withdraw)
			})
		})

		r.Route("/testimonials", func(r chi.Router) {
			r.Get("/live", testimonialHandler.ListLive)
			r.Post("/submit", testimonialHandler.Submit)

			r.Group(func(r chi.Router) {
				protected(r)
				r.Get("/", testimonialHandler.List)
				r.Delete("/{id}", testimonialHandler.Delete)
				r.Post("/{id}/approve", testimonialHandler.Approve)
				r.Post("/{id}/hide", testimonialHandler.Hide)
			})
		})

		r.Route("/registration", func(r chi.Router) {
			r.Post("/", registrationHandler.Submit)
			r.With(middleware.CertificateRateLimit()).
				Get("/verify/{regNumber}", registrationHandler.VerifyCertificate)

			r.Group(func(r chi.Router) {
				protected(r)
				r.Get("/", registrationHandler.List)
				r.Get("/StudentsRegistration", registrationHandler.List)
				r.Patch("/payment/{id}", registrationHandler.SetPayment)
				r.Patch("/certificate/{id}", registrationHandler.IssueCertificate)
				r.Delete("/{id}", registrationHandler.Delete)
				r.Get("/download-receipt/{id}", registrationHandler.DownloadReceipt)
			})
		})
	})

	s.router = r
}

// noDirListing hides directory indexes of the uploads directory.
func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		// Uploaded files are never rendered as active content.
		w.Header().Set("Content-Security-Policy", "default-src 'none'; sandbox")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message":"Bright Coders API is running"}`))
}

// handleHealthz is a liveness probe. Returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness probe. Returns 200 when the database is
// reachable and 503 otherwise.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	checks := map[string]string{"database": "ok"}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := s.deps.Store.Ping(ctx); err != nil {
		s.logger.Warn("readiness check failed", "error", err)
		checks["database"] = "unreachable"
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests.
func (s *Server) ListenAndServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start server in background goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr, "production", s.cfg.Production)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
