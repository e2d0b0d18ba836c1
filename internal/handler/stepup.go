package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/brightcoderske/Bright-Coders-Website/internal/service"
)

// StepUpHandler serves /api/step-up.
type StepUpHandler struct {
	stepUp *service.StepUpService
	logger *slog.Logger
}

func NewStepUpHandler(stepUp *service.StepUpService, logger *slog.Logger) *StepUpHandler {
	return &StepUpHandler{stepUp: stepUp, logger: logger}
}

type stepUpVerifyRequest struct {
	OTP string `json:"otp"`
}

// Request handles POST /api/step-up/request.
func (h *StepUpHandler) Request(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.stepUp.Request(r.Context(), u); err != nil {
		writeServiceError(w, r, h.logger, "step-up request", err)
		return
	}
	writeMessage(w, http.StatusOK, "Verification code sent to your email.")
}

// Verify handles POST /api/step-up/verify.
func (h *StepUpHandler) Verify(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req stepUpVerifyRequest
	if r.ContentLength != 0 {
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := h.stepUp.Verify(r.Context(), u.ID, req.OTP); err != nil {
		if errors.Is(err, service.ErrInvalidOTP) {
			writeError(w, http.StatusUnauthorized, "Invalid verification code")
			return
		}
		writeServiceError(w, r, h.logger, "step-up verify", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"verified": true,
		"message":  "Verification successful.",
	})
}
