package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/brightcoderske/Bright-Coders-Website/internal/server/middleware"
	"github.com/brightcoderske/Bright-Coders-Website/internal/service"
)

// AdminHandler serves /api/admin: the signed-in admin's own profile,
// password, two-factor setting and account deletion.
type AdminHandler struct {
	account *service.AccountService
	cookies middleware.CookiePolicy
	logger  *slog.Logger
}

func NewAdminHandler(account *service.AccountService, cookies middleware.CookiePolicy, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{account: account, cookies: cookies, logger: logger}
}

type profileRequest struct {
	FullName        *string `json:"fullName" validate:"omitempty,max=255"`
	Username        *string `json:"username" validate:"omitempty,max=100"`
	ProfileImageURL *string `json:"profileImageUrl" validate:"omitempty,uri"`
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

type twoFactorRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type deleteAccountRequest struct {
	Password string `json:"password"`
}

// GetProfile handles GET /api/admin/profile.
func (h *AdminHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// UpdateProfile handles PUT /api/admin/profile.
func (h *AdminHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req profileRequest
	if !decodeValid(w, r, &req) {
		return
	}

	updated, err := h.account.UpdateProfile(r.Context(), u.ID, service.ProfileUpdate{
		FullName:        req.FullName,
		Username:        req.Username,
		ProfileImageURL: req.ProfileImageURL,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, "update profile", err)
		return
	}
	writeMessage(w, http.StatusOK, "Profile updated successfully.", map[string]interface{}{"user": updated})
}

// ChangePassword handles PUT /api/admin/password.
func (h *AdminHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req passwordRequest
	if !decodeValid(w, r, &req) {
		return
	}

	if err := h.account.ChangePassword(r.Context(), u.ID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrWrongPassword) {
			writeError(w, http.StatusUnauthorized, "Current password is incorrect.")
			return
		}
		writeServiceError(w, r, h.logger, "change password", err)
		return
	}
	writeMessage(w, http.StatusOK, "Password updated successfully.")
}

// SetTwoFactor handles PUT /api/admin/two-factor.
func (h *AdminHandler) SetTwoFactor(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req twoFactorRequest
	if !decodeValid(w, r, &req) {
		return
	}

	updated, err := h.account.SetTwoFactor(r.Context(), u.ID, *req.Enabled)
	if err != nil {
		writeServiceError(w, r, h.logger, "set two-factor", err)
		return
	}
	msg := "Two-factor authentication disabled."
	if updated.TwoFactorEnabled {
		msg = "Two-factor authentication enabled."
	}
	writeMessage(w, http.StatusOK, msg, map[string]interface{}{"user": updated})
}

// DeleteAccount handles DELETE /api/admin/account. It needs a step-up
// verification from the last ten minutes and the current password.
func (h *AdminHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req deleteAccountRequest
	if r.ContentLength != 0 {
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := h.account.DeleteAccount(r.Context(), u.ID, req.Password); err != nil {
		writeServiceError(w, r, h.logger, "delete account", err)
		return
	}
	h.cookies.ClearSession(w)
	writeMessage(w, http.StatusOK, "Account deleted successfully.")
}
