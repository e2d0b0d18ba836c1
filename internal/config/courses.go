package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/brightcoderske/Bright-Coders-Website/internal/model"
)

const courseColumns = `id, code, title, category, duration, price, focus, level, image_url,
	description, requirements, is_public, is_featured, last_pushed_at, last_withdrawn_at,
	created_at, updated_at`

// CreateCourse inserts a course. A duplicate code is reported as ErrConflict.
func (s *Store) CreateCourse(ctx context.Context, c *model.Course) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	const q = `INSERT INTO courses
		(code, title, category, duration, price, focus, level, image_url, description, requirements,
		 is_public, is_featured, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`

	err := s.db.GetContext(ctx, &c.ID, s.q(q),
		c.Code, c.Title, c.Category, c.Duration, c.Price, c.Focus, c.Level, c.ImageURL,
		c.Description, c.Requirements, c.IsPublic, c.IsFeatured, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert course: %w", err)
	}
	return nil
}

// GetCourse returns a course by ID.
func (s *Store) GetCourse(ctx context.Context, id int64) (*model.Course, error) {
	var c model.Course
	if err := s.db.GetContext(ctx, &c, s.q("SELECT "+courseColumns+" FROM courses WHERE id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get course: %w", err)
	}
	return &c, nil
}

// ListCourses returns every course, newest first.
func (s *Store) ListCourses(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	if err := s.db.SelectContext(ctx, &courses,
		"SELECT "+courseColumns+" FROM courses ORDER BY created_at DESC, id DESC"); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// ListLiveCourses returns public courses with featured ones first.
func (s *Store) ListLiveCourses(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	if err := s.db.SelectContext(ctx, &courses, s.q(
		"SELECT "+courseColumns+" FROM courses WHERE is_public = ? ORDER BY is_featured DESC, created_at DESC, id DESC"),
		true); err != nil {
		return nil, fmt.Errorf("list live courses: %w", err)
	}
	return courses, nil
}

// UpdateCourse replaces every editable field of the course identified by c.ID.
func (s *Store) UpdateCourse(ctx context.Context, c *model.Course) error {
	c.UpdatedAt = time.Now().UTC()

	const q = `UPDATE courses SET
		code = ?, title = ?, category = ?, duration = ?, price = ?, focus = ?, level = ?,
		image_url = ?, description = ?, requirements = ?, is_public = ?, is_featured = ?, updated_at = ?
		WHERE id = ?`

	result, err := s.db.ExecContext(ctx, s.q(q),
		c.Code, c.Title, c.Category, c.Duration, c.Price, c.Focus, c.Level,
		c.ImageURL, c.Description, c.Requirements, c.IsPublic, c.IsFeatured, c.UpdatedAt, c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("update course: %w", err)
	}
	return checkAffected(result.RowsAffected())
}

// DeleteCourse removes a course.
func (s *Store) DeleteCourse(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.q("DELETE FROM courses WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return checkAffected(result.RowsAffected())
}

// PublishCourse makes a course visible on the public site.
func (s *Store) PublishCourse(ctx context.Context, id int64, at time.Time) (*model.Course, error) {
	return s.updateCourse(ctx, id, "publish course",
		"UPDATE courses SET is_public = ?, last_pushed_at = ?, updated_at = ? WHERE id = ?",
		true, at.UTC(), at.UTC(), id)
}

// WithdrawCourse hides a course from the public site.
func (s *Store) WithdrawCourse(ctx context.Context, id int64, at time.Time) (*model.Course, error) {
	return s.updateCourse(ctx, id, "withdraw course",
		"UPDATE courses SET is_public = ?, last_withdrawn_at = ?, updated_at = ? WHERE id = ?",
		false, at.UTC(), at.UTC(), id)
}

// SetCourseFeatured stars or unstars a course.
func (s *Store) SetCourseFeatured(ctx context.Context, id int64, featured bool) (*model.Course, error) {
	now := time.Now().UTC()
	return s.updateCourse(ctx, id, "set course featured",
		"UPDATE courses SET is_featured = ?, updated_at = ? WHERE id = ?", featured, now, id)
}

func (s *Store) updateCourse(ctx context.Context, id int64, op, query string, args ...interface{}) (*model.Course, error) {
	result, err := s.db.ExecContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := checkAffected(result.RowsAffected()); err != nil {
		return nil, err
	}
	return s.GetCourse(ctx, id)
}
