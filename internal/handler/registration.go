package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/brightcoderske/Bright-Coders-Website/internal/config"
	"github.com/brightcoderske/Bright-Coders-Website/internal/model"
	"github.com/brightcoderske/Bright-Coders-Website/internal/service"
)

// RegistrationHandler serves /api/registration.
type RegistrationHandler struct {
	store  *config.Store
	regs   *service.RegistrationService
	logger *slog.Logger
}

func NewRegistrationHandler(store *config.Store, regs *service.RegistrationService, logger *slog.Logger) *RegistrationHandler {
	return &RegistrationHandler{store: store, regs: regs, logger: logger}
}

type registrationRequest struct {
	ParentName       string `json:"parentName" validate:"notblank,max=255"`
	ParentPhone      string `json:"parentPhone" validate:"notblank,max=50"`
	ParentEmail      string `json:"parentEmail" validate:"required,email,max=255"`
	ChildName        string `json:"childName" validate:"notblank,max=255"`
	AgeGroup         string `json:"ageGroup" validate:"notblank,max=50"`
	GradeGroup       string `json:"gradeGroup" validate:"notblank,max=50"`
	Gender           string `json:"gender" validate:"notblank,max=50"`
	Course           string `json:"course" validate:"notblank,max=255"`
	PreferredTime    string `json:"preferredTime" validate:"notblank,max=100"`
	DeviceType       string `json:"deviceType" validate:"notblank,max=50"`
	InternetQuality  string `json:"internetQuality" validate:"notblank,max=50"`
	EmergencyContact string `json:"emergencyContact" validate:"notblank,max=255"`
	EmergencyPhone   string `json:"emergencyPhone" validate:"notblank,max=50"`
	Notes            string `json:"notes" validate:"max=2000"`
	HeardFrom        string `json:"heardFrom" validate:"max=100"`
	Consent          bool   `json:"consent" validate:"eq=true"`
}

func (req *registrationRequest) toModel() *model.Registration {
	r := &model.Registration{
		ParentName:       strings.TrimSpace(req.ParentName),
		ParentPhone:      strings.TrimSpace(req.ParentPhone),
		ParentEmail:      strings.TrimSpace(req.ParentEmail),
		ChildName:        strings.TrimSpace(req.ChildName),
		AgeGroup:         strings.TrimSpace(req.AgeGroup),
		GradeGroup:       strings.TrimSpace(req.GradeGroup),
		Gender:           strings.TrimSpace(req.Gender),
		CourseName:       strings.TrimSpace(req.Course),
		PreferredTime:    strings.TrimSpace(req.PreferredTime),
		DeviceType:       strings.TrimSpace(req.DeviceType),
		InternetQuality:  strings.TrimSpace(req.InternetQuality),
		EmergencyContact: strings.TrimSpace(req.EmergencyContact),
		EmergencyPhone:   strings.TrimSpace(req.EmergencyPhone),
		HeardFrom:        strings.TrimSpace(req.HeardFrom),
		Consent:          req.Consent,
	}
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		r.Notes = &notes
	}
	return r
}

type paymentRequest struct {
	Status string `json:"status" validate:"required,oneof=pending paid failed"`
}

// ---------------------------------------------------------------------------
// Public
// ---------------------------------------------------------------------------

// Submit handles POST /api/registration.
func (h *RegistrationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if !decodeValid(w, r, &req) {
		return
	}
	reg := req.toModel()
	if err := h.regs.Submit(r.Context(), reg); err != nil {
		writeServiceError(w, r, h.logger, "submit registration", err)
		return
	}
	writeMessage(w, http.StatusCreated, "Registration submitted successfully.", map[string]interface{}{
		"registrationNumber": reg.RegistrationNumber,
		"registration":       reg,
	})
}

// VerifyCertificate handles GET /api/registration/verify/{regNumber}.
func (h *RegistrationHandler) VerifyCertificate(w http.ResponseWriter, r *http.Request) {
	number := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "regNumber")))
	cert, err := h.regs.VerifyCertificate(r.Context(), number)
	if err != nil {
		writeServiceError(w, r, h.logger, "verify certificate", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":       true,
		"certificate": cert,
	})
}

// ---------------------------------------------------------------------------
// Admin
// ---------------------------------------------------------------------------

// List handles GET /api/registration.
func (h *RegistrationHandler) List(w http.ResponseWriter, r *http.Request) {
	regs, err := h.store.ListRegistrations(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, "list registrations", err)
		return
	}
	writeJSON(w, http.StatusOK, model.NewListResponse(regs))
}

// SetPayment handles PATCH /api/registration/payment/{id}.
func (h *RegistrationHandler) SetPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req paymentRequest
	if !decodeValid(w, r, &req) {
		return
	}
	reg, err := h.regs.SetPaymentStatus(r.Context(), id, req.Status)
	if err != nil {
		writeServiceError(w, r, h.logger, "update payment status", err)
		return
	}
	writeMessage(w, http.StatusOK, "Payment status updated.", map[string]interface{}{"registration": reg})
}

// IssueCertificate handles PATCH /api/registration/certificate/{id}.
func (h *RegistrationHandler) IssueCertificate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	reg, err := h.regs.IssueCertificate(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, "issue certificate", err)
		return
	}
	writeMessage(w, http.StatusOK, "Certificate issued.", map[string]interface{}{"registration": reg})
}

// Delete handles DELETE /api/registration/{id}.
func (h *RegistrationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteRegistration(r.Context(), id); err != nil {
		writeServiceError(w, r, h.logger, "delete registration", err)
		return
	}
	writeMessage(w, http.StatusOK, "Registration deleted successfully.")
}

// DownloadReceipt handles GET /api/registration/download-receipt/{id}.
func (h *RegistrationHandler) DownloadReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	body, filename, err := h.regs.Receipt(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, "render receipt", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
