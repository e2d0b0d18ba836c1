package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/brightcoderske/Bright-Coders-Website/internal/model"
)

const testimonialColumns = `id, user_name, user_role, message, rating, image_url, is_approved, created_at`

// CreateTestimonial stores a public submission. New testimonials are never
// approved on arrival.
func (s *Store) CreateTestimonial(ctx context.Context, t *model.Testimonial) error {
	t.CreatedAt = time.Now().UTC()
	t.IsApproved = false

	const q = `INSERT INTO testimonials (user_name, user_role, message, rating, image_url, is_approved, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`

	if err := s.db.GetContext(ctx, &t.ID, s.q(q),
		t.UserName, t.UserRole, t.Message, t.Rating, t.ImageURL, false, t.CreatedAt); err != nil {
		return fmt.Errorf("insert testimonial: %w", err)
	}
	return nil
}

// GetTestimonial returns a testimonial by ID.
func (s *Store) GetTestimonial(ctx context.Context, id int64) (*model.Testimonial, error) {
	var t model.Testimonial
	if err := s.db.GetContext(ctx, &t, s.q("SELECT "+testimonialColumns+" FROM testimonials WHERE id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get testimonial: %w", err)
	}
	return &t, nil
}

// ListTestimonials returns all submissions, newest first.
func (s *Store) ListTestimonials(ctx context.Context) ([]model.Testimonial, error) {
	var out []model.Testimonial
	if err := s.db.SelectContext(ctx, &out,
		"SELECT "+testimonialColumns+" FROM testimonials ORDER BY created_at DESC, id DESC"); err != nil {
		return nil, fmt.Errorf("list testimonials: %w", err)
	}
	return out, nil
}

// ListApprovedTestimonials returns testimonials visible on the public site.
func (s *Store) ListApprovedTestimonials(ctx context.Context) ([]model.Testimonial, error) {
	var out []model.Testimonial
	if err := s.db.SelectContext(ctx, &out, s.q(
		"SELECT "+testimonialColumns+" FROM testimonials WHERE is_approved = ? ORDER BY created_at DESC, id DESC"),
		true); err != nil {
		return nil, fmt.Errorf("list approved testimonials: %w", err)
	}
	return out, nil
}

// SetTestimonialApproved approves or hides a testimonial.
func (s *Store) SetTestimonialApproved(ctx context.Context, id int64, approved bool) (*model.Testimonial, error) {
	result, err := s.db.ExecContext(ctx, s.q("UPDATE testimonials SET is_approved = ? WHERE id = ?"), approved, id)
	if err != nil {
		return nil, fmt.Errorf("set testimonial approval: %w", err)
	}
	if err := checkAffected(result.RowsAffected()); err != nil {
		return nil, err
	}
	return s.GetTestimonial(ctx, id)
}

// DeleteTestimonial removes a testimonial.
func (s *Store) DeleteTestimonial(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.q("DELETE FROM testimonials WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete testimonial: %w", err)
	}
	return checkAffected(result.RowsAffected())
}
