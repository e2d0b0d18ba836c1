package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/brightcoderske/Bright-Coders-Website/internal/model"
	"github.com/brightcoderske/Bright-Coders-Website/internal/server/middleware"
	"github.com/brightcoderske/Bright-Coders-Website/internal/service"
)

// AuthHandler serves /api/auth: admin registration, sign-in with optional
// email two-factor, sign-out and the current session.
type AuthHandler struct {
	auth     *service.AuthService
	uploader *Uploader
	cookies  middleware.CookiePolicy
	logger   *slog.Logger
}

func NewAuthHandler(auth *service.AuthService, uploader *Uploader, cookies middleware.CookiePolicy, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, uploader: uploader, cookies: cookies, logger: logger}
}

type registerRequest struct {
	FullName        string `json:"fullName" validate:"notblank,max=255"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ProfileImageURL string `json:"profileImageUrl" validate:"omitempty,uri"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyOTPRequest struct {
	OTP       string `json:"otp"`
	TempToken string `json:"tempToken"`
}

// Register handles POST /api/auth/register. Only the first account can ever
// be created.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeValid(w, r, &req) {
		return
	}

	u, err := h.auth.Register(r.Context(), service.RegisterInput{
		FullName:        req.FullName,
		Email:           req.Email,
		Password:        req.Password,
		ProfileImageURL: req.ProfileImageURL,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, "register admin", err)
		return
	}
	writeMessage(w, http.StatusCreated, "User registered successfully.", map[string]interface{}{"user": u})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.logger, "login", err)
		return
	}
	if res.TwoFactorRequired {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"twoFactorRequired": true,
			"tempToken":         res.TempToken,
		})
		return
	}

	h.cookies.SetSession(w, res.Token, h.auth.SessionTTL())
	writeMessage(w, http.StatusOK, "Login successful.", map[string]interface{}{
		"user":  res.User,
		"token": res.Token,
	})
}

// VerifyOTP handles POST /api/auth/verify-otp. The temp token comes from the
// Authorization header, or from the body for clients that cannot set it.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.OTP) == "" {
		writeError(w, http.StatusBadRequest, "OTP required.")
		return
	}
	token := middleware.BearerToken(r)
	if token == "" {
		token = req.TempToken
	}

	res, err := h.auth.VerifyLoginOTP(r.Context(), token, strings.TrimSpace(req.OTP))
	if err != nil {
		writeServiceError(w, r, h.logger, "verify login otp", err)
		return
	}

	h.cookies.SetSession(w, res.Token, h.auth.SessionTTL())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": res.Token,
		"user":  res.User,
	})
}

// Logout handles POST /api/auth/logout. It always succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.ClearSession(w)
	writeMessage(w, http.StatusOK, "Logged out successfully.")
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]*model.User{"user": u})
}

// UploadImage handles POST /api/auth/upload-image.
func (h *AuthHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	img, err := h.uploader.FormImage(r, "images")
	if err != nil {
		if isUploadClientError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeServiceError(w, r, h.logger, "upload image", err)
		return
	}
	if img == nil {
		writeError(w, http.StatusBadRequest, "No image uploaded.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"imageUrl": img.URL})
}

// CSRFToken handles GET /api/csrf-token. The token is set as a cookie and
// returned in the body so the client can echo it in X-CSRF-Token.
func (h *AuthHandler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	token, err := middleware.NewCSRFToken()
	if err != nil {
		writeServiceError(w, r, h.logger, "csrf token", err)
		return
	}
	h.cookies.SetCSRF(w, token)
	writeJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
}
