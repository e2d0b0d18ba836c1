package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/brightcoderske/Bright-Coders-Website/internal/config"
	"github.com/brightcoderske/Bright-Coders-Website/internal/model"
	"github.com/brightcoderske/Bright-Coders-Website/internal/server/middleware"
	"github.com/brightcoderske/Bright-Coders-Website/internal/service"
	"github.com/brightcoderske/Bright-Coders-Website/internal/validate"
)

// writeJSON serializes v as JSON and writes it to the response with the given
// HTTP status code. The Content-Type header is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a structured error response using the standard error
// envelope. The optional ctx map provides additional context fields.
func writeError(w http.ResponseWriter, code int, message string, ctx ...map[string]interface{}) {
	var ctxMap map[string]interface{}
	if len(ctx) > 0 {
		ctxMap = ctx[0]
	}
	writeJSON(w, code, model.ErrorResponse{
		Error: model.ErrorDetail{
			Code:    code,
			Message: message,
			Context: ctxMap,
		},
	})
}

// writeMessage writes {"message": msg} plus any extra fields.
func writeMessage(w http.ResponseWriter, status int, msg string, extra ...map[string]interface{}) {
	body := map[string]interface{}{"message": msg}
	for _, m := range extra {
		for k, v := range m {
			body[k] = v
		}
	}
	writeJSON(w, status, body)
}

// readJSON decodes the request body as JSON into v. The body is closed after
// decoding regardless of success or failure. Unknown fields are ignored.
func readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// decodeValid reads a JSON body into v and validates it. On failure the error
// response has already been written and false is returned.
func decodeValid(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := readJSON(r, v); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return checkValid(w, v)
}

// checkValid validates v and writes a 400 with field errors on failure.
func checkValid(w http.ResponseWriter, v interface{}) bool {
	err := validate.Struct(v)
	if err == nil {
		return true
	}
	var verrs validate.Errors
	if errors.As(err, &verrs) {
		writeError(w, http.StatusBadRequest, "Validation failed", map[string]interface{}{
			"errors": verrs,
		})
		return false
	}
	writeError(w, http.StatusBadRequest, err.Error())
	return false
}

// pathID parses the {id} URL parameter. On failure a 400 has been written.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid id: "+raw)
		return 0, false
	}
	return id, true
}

// currentUser returns the signed-in admin. Routes using it are mounted
// behind Authenticate, so a missing principal is a wiring bug.
func currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	u := middleware.CurrentUser(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated. Please sign in.")
		return nil, false
	}
	return u, true
}

// errorStatus maps store and service errors to an HTTP status and a message
// that is safe to show to clients. Unknown errors map to 500.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, config.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, config.ErrConflict):
		return http.StatusConflict, "A record with the same unique value already exists"

	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password."
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized, "Invalid or expired token."
	case errors.Is(err, service.ErrRegistrationClosed):
		return http.StatusForbidden, "Registration is disabled. Admin already exists."
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, "Email already in use."
	case errors.Is(err, service.ErrWeakPassword):
		return http.StatusBadRequest, fmt.Sprintf("Password must be at least %d characters.", service.MinPasswordLength)

	case errors.Is(err, service.ErrOTPRequired):
		return http.StatusBadRequest, "OTP required."
	case errors.Is(err, service.ErrInvalidOTP):
		return http.StatusUnauthorized, "Invalid or expired OTP."
	case errors.Is(err, service.ErrOTPDelivery):
		return http.StatusInternalServerError, "Could not send verification code. Please try again."
	case errors.Is(err, service.ErrPasswordReq):
		return http.StatusBadRequest, "Password is required."
	case errors.Is(err, service.ErrWrongPassword):
		return http.StatusUnauthorized, "Invalid password."

	case errors.Is(err, service.ErrNoActiveChallenge):
		return http.StatusBadRequest, "No active verification request"
	case errors.Is(err, service.ErrTooManyAttempts):
		return http.StatusForbidden, "Too many failed attempts"
	case errors.Is(err, service.ErrChallengeExpired):
		return http.StatusForbidden, "Verification code expired"
	case errors.Is(err, service.ErrResendTooSoon):
		return http.StatusTooManyRequests, "Please wait before requesting another code"
	case errors.Is(err, service.ErrStepUpRequired):
		return http.StatusForbidden, "Recent verification required"
	case errors.Is(err, service.ErrStepUpExpired):
		return http.StatusForbidden, "Verification expired. Please verify again."

	case errors.Is(err, service.ErrNotPaid):
		return http.StatusConflict, "Payment has not been confirmed for this registration"
	case errors.Is(err, service.ErrCertificateNotIssued):
		return http.StatusNotFound, "Certificate not found or not yet issued"
	case errors.Is(err, service.ErrInvalidPaymentStatus):
		return http.StatusBadRequest, "Invalid payment status"
	}
	return http.StatusInternalServerError, "Internal server error"
}

// writeServiceError maps err via errorStatus and logs anything that ends up
// as a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, op string, err error) {
	status, msg := errorStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error(op, "error", err, "request_id", middleware.GetRequestID(r.Context()))
	}
	writeError(w, status, msg)
}

// trimmed returns s with surrounding whitespace removed, or def when the
// result is empty.
func trimmed(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
