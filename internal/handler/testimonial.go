package handler

import (
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/brightcoderske/Bright-Coders-Website/internal/config"
	"github.com/brightcoderske/Bright-Coders-Website/internal/model"
	"github.com/brightcoderske/Bright-Coders-Website/internal/service"
)

// TestimonialHandler serves /api/testimonials.
type TestimonialHandler struct {
	store    *config.Store
	uploader *Uploader
	notifier *service.Notifier
	logger   *slog.Logger
}

func NewTestimonialHandler(store *config.Store, uploader *Uploader, notifier *service.Notifier, logger *slog.Logger) *TestimonialHandler {
	return &TestimonialHandler{store: store, uploader: uploader, notifier: notifier, logger: logger}
}

type testimonialRequest struct {
	UserName string `json:"userName" validate:"required,min=2,max=100"`
	UserRole string `json:"userRole" validate:"min=3,max=100"`
	Message  string `json:"message" validate:"required,min=10,max=1000,minwords=5,maxwords=20"`
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	ImageURL string `json:"imageUrl" validate:"omitempty,uri"`
}

func (req *testimonialRequest) normalize() {
	req.UserName = strings.TrimSpace(req.UserName)
	req.UserRole = trimmed(req.UserRole, model.DefaultTestimonialRole)
	req.Message = strings.TrimSpace(req.Message)
	req.ImageURL = strings.TrimSpace(req.ImageURL)
}

// ListLive handles GET /api/testimonials/live.
func (h *TestimonialHandler) ListLive(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListApprovedTestimonials(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, "list approved testimonials", err)
		return
	}
	writeJSON(w, http.StatusOK, model.NewListResponse(items))
}

// Submit handles POST /api/testimonials/submit. It accepts JSON, or a
// multipart form whose optional "image" file is stored and used as the
// image URL. Submissions wait for approval.
func (h *TestimonialHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var (
		req testimonialRequest
		img *StoredImage
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(MaxImageSize); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
			return
		}
		req.UserName = r.FormValue("userName")
		req.UserRole = r.FormValue("userRole")
		req.Message = r.FormValue("message")
		req.ImageURL = r.FormValue("imageUrl")
		if raw := strings.TrimSpace(r.FormValue("rating")); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "rating must be a whole number")
				return
			}
			req.Rating = n
		}
	} else if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req.normalize()
	if !checkValid(w, &req) {
		return
	}

	if mediaType == "multipart/form-data" {
		var err error
		img, err = h.uploader.FormImage(r, "testimonials")
		if err != nil {
			if isUploadClientError(err) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeServiceError(w, r, h.logger, "store testimonial image", err)
			return
		}
		if img != nil {
			req.ImageURL = img.URL
		}
	}

	t := &model.Testimonial{
		UserName: req.UserName,
		UserRole: req.UserRole,
		Message:  req.Message,
		Rating:   req.Rating,
	}
	if req.ImageURL != "" {
		t.ImageURL = &req.ImageURL
	}
	if err := h.store.CreateTestimonial(r.Context(), t); err != nil {
		if derr := h.uploader.Discard(r.Context(), img); derr != nil {
			h.logger.Warn("discard testimonial image", "error", derr)
		}
		writeServiceError(w, r, h.logger, "create testimonial", err)
		return
	}

	h.notifier.TestimonialSubmitted(r.Context(), t)
	writeMessage(w, http.StatusCreated, "Thank you! Your testimonial has been submitted for review.",
		map[string]interface{}{"testimonial": t})
}

// List handles GET /api/testimonials.
func (h *TestimonialHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListTestimonials(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, "list testimonials", err)
		return
	}
	writeJSON(w, http.StatusOK, model.NewListResponse(items))
}

// Approve handles POST /api/testimonials/{id}/approve.
func (h *TestimonialHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.setApproved(w, r, true)
}

// Hide handles POST /api/testimonials/{id}/hide.
func (h *TestimonialHandler) Hide(w http.ResponseWriter, r *http.Request) {
	h.setApproved(w, r, false)
}

func (h *TestimonialHandler) setApproved(w http.ResponseWriter, r *http.Request, approved bool) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	t, err := h.store.SetTestimonialApproved(r.Context(), id, approved)
	if err != nil {
		writeServiceError(w, r, h.logger, "set testimonial approval", err)
		return
	}
	msg := "Testimonial hidden."
	if approved {
		msg = "Testimonial approved."
	}
	writeMessage(w, http.StatusOK, msg, map[string]interface{}{"testimonial": t})
}

// Delete handles DELETE /api/testimonials/{id}.
func (h *TestimonialHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteTestimonial(r.Context(), id); err != nil {
		writeServiceError(w, r, h.logger, "delete testimonial", err)
		return
	}
	writeMessage(w, http.StatusOK, "Testimonial deleted successfully.")
}
