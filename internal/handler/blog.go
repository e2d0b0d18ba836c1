package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/brightcoderske/Bright-Coders-Website/internal/config"
	"github.com/brightcoderske/Bright-Coders-Website/internal/model"
)

// BlogHandler serves /api/blogs.
type BlogHandler struct {
	store  *config.Store
	logger *slog.Logger
}

func NewBlogHandler(store *config.Store, logger *slog.Logger) *BlogHandler {
	return &BlogHandler{store: store, logger: logger}
}

type blogRequest struct {
	Title         string   `json:"title" validate:"required,min=5,max=255"`
	Category      string   `json:"category" validate:"min=3,max=100"`
	Summary       string   `json:"summary" validate:"required,min=10,max=500"`
	Content       string   `json:"content" validate:"required,min=20"`
	KeyHighlights []string `json:"keyHighlights" validate:"required,min=1,dive,min=2"`
	Author        string   `json:"author"`
	ImageURL      string   `json:"imageUrl" validate:"required,uri"`
}

// normalize trims the request and fills the category and author defaults.
func (req *blogRequest) normalize() {
	req.Title = strings.TrimSpace(req.Title)
	req.Category = trimmed(req.Category, model.DefaultBlogCategory)
	req.Summary = strings.TrimSpace(req.Summary)
	req.Content = strings.TrimSpace(req.Content)
	req.KeyHighlights = trimAll(req.KeyHighlights)
	req.Author = trimmed(req.Author, model.DefaultBlogAuthor)
	req.ImageURL = strings.TrimSpace(req.ImageURL)
}

func (req *blogRequest) apply(b *model.Blog) {
	b.Title = req.Title
	b.Category = req.Category
	b.Summary = req.Summary
	b.Content = req.Content
	b.KeyHighlights = model.StringList(req.KeyHighlights)
	b.Author = req.Author
	b.ImageURL = req.ImageURL
}

// decodeBlog reads, normalizes and validates a blog body.
func decodeBlog(w http.ResponseWriter, r *http.Request) (*blogRequest, bool) {
	var req blogRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	req.normalize()
	if !checkValid(w, &req) {
		return nil, false
	}
	return &req, true
}

// ListLive handles GET /api/blogs/live.
func (h *BlogHandler) ListLive(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.store.ListLiveBlogs(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, "list live blogs", err)
		return
	}
	writeJSON(w, http.StatusOK, model.NewListResponse(blogs))
}

// List handles GET /api/blogs.
func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.store.ListBlogs(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, "list blogs", err)
		return
	}
	writeJSON(w, http.StatusOK, model.NewListResponse(blogs))
}

// Get handles GET /api/blogs/{id}.
func (h *BlogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b, err := h.store.GetBlog(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, "get blog", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Create handles POST /api/blogs. New posts start as drafts.
func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBlog(w, r)
	if !ok {
		return
	}
	b := &model.Blog{}
	req.apply(b)
	if err := h.store.CreateBlog(r.Context(), b); err != nil {
		writeServiceError(w, r, h.logger, "create blog", err)
		return
	}
	h.logger.Info("blog created", "blog_id", b.ID)
	writeJSON(w, http.StatusCreated, b)
}

// Update handles PUT /api/blogs/{id}.
func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, ok := decodeBlog(w, r)
	if !ok {
		return
	}
	b, err := h.store.GetBlog(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, "get blog", err)
		return
	}
	req.apply(b)
	if err := h.store.UpdateBlog(r.Context(), b); err != nil {
		writeServiceError(w, r, h.logger, "update blog", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Delete handles DELETE /api/blogs/{id}.
func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteBlog(r.Context(), id); err != nil {
		writeServiceError(w, r, h.logger, "delete blog", err)
		return
	}
	writeMessage(w, http.StatusOK, "Blog deleted successfully.")
}

// Push handles POST /api/blogs/{id}/push.
func (h *BlogHandler) Push(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b, err := h.store.PublishBlog(r.Context(), id, time.Now())
	if err != nil {
		writeServiceError(w, r, h.logger, "publish blog", err)
		return
	}
	writeMessage(w, http.StatusOK, "Blog is now live.", map[string]interface{}{"blog": b})
}

// Withdraw handles POST /api/blogs/{id}/withdraw.
func (h *BlogHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b, err := h.store.WithdrawBlog(r.Context(), id, time.Now())
	if err != nil {
		writeServiceError(w, r, h.logger, "withdraw blog", err)
		return
	}
	writeMessage(w, http.StatusOK, "Blog withdrawn from the site.", map[string]interface{}{"blog": b})
}
