package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brightcoderske/Bright-Coders-Website/internal/model"
)

const goodReview = "My daughter now builds her own games every weekend."

func TestSubmitTestimonialJSON(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/testimonials/submit", toJSON(t, map[string]interface{}{
		"userName": "Wanjiku",
		"message":  goodReview,
		"rating":   5,
	}))
	assertStatus(t, rr, http.StatusCreated)

	var resp struct {
		Testimonial model.Testimonial `json:"testimonial"`
	}
	decodeJSON(t, rr, &resp)
	if resp.Testimonial.IsApproved {
		t.Error("submissions must start unapproved")
	}
	if resp.Testimonial.UserRole != model.DefaultTestimonialRole {
		t.Errorf("role = %q", resp.Testimonial.UserRole)
	}
	if env.mail.count() != 1 || !strings.Contains(env.mail.last(t).Subject, "estimonial") {
		t.Errorf("expected an admin alert, got %d emails", env.mail.count())
	}

	rr = env.do(t, "GET", "/api/testimonials/live", nil)
	var live model.ListResponse[model.Testimonial]
	decodeJSON(t, rr, &live)
	if live.Meta.Count != 0 {
		t.Error("unapproved testimonial must not be live")
	}
}

func TestSubmitTestimonialWordBounds(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		message string
		want    int
	}{
		{"four words", "Great classes for kids", http.StatusBadRequest},
		{"five words", "Great classes for my kids", http.StatusCreated},
		{"twenty words", strings.TrimSpace(strings.Repeat("word ", 20)), http.StatusCreated},
		{"twenty-one words", strings.TrimSpace(strings.Repeat("word ", 21)), http.StatusBadRequest},
		{"too short", "a b c d e", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, "POST", "/api/testimonials/submit", toJSON(t, map[string]interface{}{
				"userName": "Parent",
				"message":  tt.message,
				"rating":   4,
			}))
			assertStatus(t, rr, tt.want)
		})
	}
}

func TestSubmitTestimonialRating(t *testing.T) {
	env := newTestEnv(t)
	for _, rating := range []int{0, 6} {
		rr := env.do(t, "POST", "/api/testimonials/submit", toJSON(t, map[string]interface{}{
			"userName": "Parent",
			"message":  goodReview,
			"rating":   rating,
		}))
		assertStatus(t, rr, http.StatusBadRequest)
	}
}

func TestSubmitTestimonialMultipart(t *testing.T) {
	env := newTestEnv(t)

	body, ct := multipartBody(t, map[string]string{
		"userName": "Otieno",
		"userRole": "Parent",
		"message":  goodReview,
		"rating":   "4",
	}, "me.png", pngBytes(t))
	req := httptest.NewRequest("POST", "/api/testimonials/submit", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	assertStatus(t, rr, http.StatusCreated)

	var resp struct {
		Testimonial model.Testimonial `json:"testimonial"`
	}
	decodeJSON(t, rr, &resp)
	if resp.Testimonial.ImageURL == nil || !strings.HasPrefix(*resp.Testimonial.ImageURL, "/uploads/testimonials/") {
		t.Errorf("image url = %v", resp.Testimonial.ImageURL)
	}
	if resp.Testimonial.Rating != 4 {
		t.Errorf("rating = %d", resp.Testimonial.Rating)
	}
}

func TestSubmitTestimonialMultipartInvalidSkipsUpload(t *testing.T) {
	env := newTestEnv(t)

	body, ct := multipartBody(t, map[string]string{
		"userName": "Otieno",
		"message":  "too short",
		"rating":   "4",
	}, "me.png", pngBytes(t))
	req := httptest.NewRequest("POST", "/api/testimonials/submit", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	assertStatus(t, rr, http.StatusBadRequest)
	if env.files.len() != 0 {
		t.Error("image should not be stored for an invalid submission")
	}
}

func TestModerateTestimonial(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)

	rr := env.do(t, "POST", "/api/testimonials/submit", toJSON(t, map[string]interface{}{
		"userName": "Wanjiku",
		"message":  goodReview,
		"rating":   5,
	}))
	var resp struct {
		Testimonial model.Testimonial `json:"testimonial"`
	}
	decodeJSON(t, rr, &resp)
	id := resp.Testimonial.ID

	rr = env.do(t, "POST", fmt.Sprintf("/api/testimonials/%d/approve", id), nil)
	assertStatus(t, rr, http.StatusOK)

	var live model.ListResponse[model.Testimonial]
	decodeJSON(t, env.do(t, "GET", "/api/testimonials/live", nil), &live)
	if live.Meta.Count != 1 {
		t.Fatalf("expected approved testimonial live, got %d", live.Meta.Count)
	}

	rr = env.do(t, "POST", fmt.Sprintf("/api/testimonials/%d/hide", id), nil)
	assertStatus(t, rr, http.StatusOK)
	decodeJSON(t, env.do(t, "GET", "/api/testimonials/live", nil), &live)
	if live.Meta.Count != 0 {
		t.Error("hidden testimonial should leave the live list")
	}

	var all model.ListResponse[model.Testimonial]
	decodeJSON(t, env.do(t, "GET", "/api/testimonials", nil), &all)
	if all.Meta.Count != 1 {
		t.Errorf("admin list = %d", all.Meta.Count)
	}

	rr = env.do(t, "DELETE", fmt.Sprintf("/api/testimonials/%d", id), nil)
	assertStatus(t, rr, http.StatusOK)
	rr = env.do(t, "POST", fmt.Sprintf("/api/testimonials/%d/approve", id), nil)
	assertStatus(t, rr, http.StatusNotFound)
}
