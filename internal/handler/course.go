package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brightcoderske/Bright-Coders-Website/internal/config"
	"github.com/brightcoderske/Bright-Coders-Website/internal/model"
)

// generatedCodeAttempts bounds retries when a generated course code collides.
const generatedCodeAttempts = 3

// CourseHandler serves /api/courses.
type CourseHandler struct {
	store  *config.Store
	logger *slog.Logger
}

func NewCourseHandler(store *config.Store, logger *slog.Logger) *CourseHandler {
	return &CourseHandler{store: store, logger: logger}
}

type courseDescriptionRequest struct {
	Definition     string   `json:"definition" validate:"notblank,max=1000"`
	LearningPoints []string `json:"learningPoints" validate:"required,min=1,dive,notblank"`
	Outcome        string   `json:"outcome" validate:"notblank"`
}

type courseRequest struct {
	Code         string                    `json:"code" validate:"omitempty,max=10"`
	Title        string                    `json:"title" validate:"required,min=5,max=100"`
	Category     string                    `json:"category" validate:"required,max=50"`
	Duration     string                    `json:"duration" validate:"required"`
	Price        *float64                  `json:"price" validate:"required,gte=0,lte=1000000"`
	Level        string                    `json:"level" validate:"required,oneof=Beginner Intermediate Advanced"`
	ImageURL     string                    `json:"imageUrl" validate:"required,uri"`
	Description  *courseDescriptionRequest `json:"description" validate:"required"`
	Requirements []string                  `json:"requirements" validate:"required,min=1,dive,notblank"`
	Focus        []string                  `json:"focus" validate:"required,min=1,dive,notblank"`
	IsPublic     *bool                     `json:"isPublic"`
	IsFeatured   *bool                     `json:"isFeatured"`
}

type featuredRequest struct {
	IsFeatured *bool `json:"isFeatured" validate:"required"`
}

// normalize trims string fields so length rules apply to the visible text.
func (req *courseRequest) normalize() {
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.Title = strings.TrimSpace(req.Title)
	req.Category = strings.TrimSpace(req.Category)
	req.Duration = strings.TrimSpace(req.Duration)
	req.ImageURL = strings.TrimSpace(req.ImageURL)
	req.Requirements = trimAll(req.Requirements)
	req.Focus = trimAll(req.Focus)
	if d := req.Description; d != nil {
		d.Definition = strings.TrimSpace(d.Definition)
		d.Outcome = strings.TrimSpace(d.Outcome)
		d.LearningPoints = trimAll(d.LearningPoints)
	}
}

// apply copies the request onto c. Publication flags are only touched when
// present.
func (req *courseRequest) apply(c *model.Course) {
	if req.Code != "" {
		c.Code = req.Code
	}
	c.Title = req.Title
	c.Category = req.Category
	c.Duration = req.Duration
	c.Price = *req.Price
	c.Level = req.Level
	c.ImageURL = req.ImageURL
	c.Description = model.CourseDescription{
		Definition:     req.Description.Definition,
		LearningPoints: req.Description.LearningPoints,
		Outcome:        req.Description.Outcome,
	}
	c.Requirements = model.StringList(req.Requirements)
	c.Focus = model.StringList(req.Focus)
	if req.IsPublic != nil {
		c.IsPublic = *req.IsPublic
	}
	if req.IsFeatured != nil {
		c.IsFeatured = *req.IsFeatured
	}
}

func trimAll(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

// newCourseCode returns a random code such as "BC-1A2B3C4".
func newCourseCode() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "BC-" + strings.ToUpper(hex[:7])
}

// ---------------------------------------------------------------------------
// Public
// ---------------------------------------------------------------------------

// ListLive handles GET /api/courses/live.
func (h *CourseHandler) ListLive(w http.ResponseWriter, r *http.Request) {
	courses, err := h.store.ListLiveCourses(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, "list live courses", err)
		return
	}
	writeJSON(w, http.StatusOK, model.NewListResponse(courses))
}

// ---------------------------------------------------------------------------
// Admin
// ---------------------------------------------------------------------------

// List handles GET /api/courses.
func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	courses, err := h.store.ListCourses(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, "list courses", err)
		return
	}
	writeJSON(w, http.StatusOK, model.NewListResponse(courses))
}

// Get handles GET /api/courses/{id}.
func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.store.GetCourse(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, "get course", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Create handles POST /api/courses. A code is generated when none is given.
func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.normalize()
	if !checkValid(w, &req) {
		return
	}

	c := &model.Course{}
	req.apply(c)
	if err := h.createCourse(r.Context(), c, req.Code == ""); err != nil {
		if errors.Is(err, config.ErrConflict) {
			writeError(w, http.StatusConflict, "A course with code "+c.Code+" already exists")
			return
		}
		writeServiceError(w, r, h.logger, "create course", err)
		return
	}
	h.logger.Info("course created", "course_id", c.ID, "code", c.Code)
	writeJSON(w, http.StatusCreated, c)
}

func (h *CourseHandler) createCourse(ctx context.Context, c *model.Course, generate bool) error {
	if !generate {
		return h.store.CreateCourse(ctx, c)
	}
	var err error
	for i := 0; i < generatedCodeAttempts; i++ {
		c.Code = newCourseCode()
		if err = h.store.CreateCourse(ctx, c); !errors.Is(err, config.ErrConflict) {
			return err
		}
	}
	return err
}

// Update handles PUT /api/courses/{id}.
func (h *CourseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req courseRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.normalize()
	if !checkValid(w, &req) {
		return
	}

	c, err := h.store.GetCourse(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, "get course", err)
		return
	}
	req.apply(c)
	if err := h.store.UpdateCourse(r.Context(), c); err != nil {
		if errors.Is(err, config.ErrConflict) {
			writeError(w, http.StatusConflict, "A course with code "+c.Code+" already exists")
			return
		}
		writeServiceError(w, r, h.logger, "update course", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Delete handles DELETE /api/courses/{id}.
func (h *CourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteCourse(r.Context(), id); err != nil {
		writeServiceError(w, r, h.logger, "delete course", err)
		return
	}
	writeMessage(w, http.StatusOK, "Course deleted successfully.")
}

// Push handles POST /api/courses/{id}/push.
func (h *CourseHandler) Push(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.store.PublishCourse(r.Context(), id, time.Now())
	if err != nil {
		writeServiceError(w, r, h.logger, "publish course", err)
		return
	}
	writeMessage(w, http.StatusOK, "Course is now live.", map[string]interface{}{"course": c})
}

// Withdraw handles POST /api/courses/{id}/withdraw.
func (h *CourseHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.store.WithdrawCourse(r.Context(), id, time.Now())
	if err != nil {
		writeServiceError(w, r, h.logger, "withdraw course", err)
		return
	}
	writeMessage(w, http.StatusOK, "Course withdrawn from the site.", map[string]interface{}{"course": c})
}

// SetFeatured handles PATCH /api/courses/{id}/featured.
func (h *CourseHandler) SetFeatured(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req featuredRequest
	if !decodeValid(w, r, &req) {
		return
	}
	c, err := h.store.SetCourseFeatured(r.Context(), id, *req.IsFeatured)
	if err != nil {
		writeServiceError(w, r, h.logger, "set course featured", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
