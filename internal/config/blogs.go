package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/brightcoderske/Bright-Coders-Website/internal/model"
)

const blogColumns = `id, title, category, summary, content, key_highlights, author, image_url,
	is_public, last_pushed_at, last_withdrawn_at, created_at, updated_at`

// CreateBlog inserts a blog post as a draft unless b.IsPublic is set.
func (s *Store) CreateBlog(ctx context.Context, b *model.Blog) error {
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	const q = `INSERT INTO blogs
		(title, category, summary, content, key_highlights, author, image_url, is_public, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`

	if err := s.db.GetContext(ctx, &b.ID, s.q(q),
		b.Title, b.Category, b.Summary, b.Content, b.KeyHighlights, b.Author, b.ImageURL, b.IsPublic, now, now); err != nil {
		return fmt.Errorf("insert blog: %w", err)
	}
	return nil
}

// GetBlog returns a blog post by ID.
func (s *Store) GetBlog(ctx context.Context, id int64) (*model.Blog, error) {
	var b model.Blog
	if err := s.db.GetContext(ctx, &b, s.q("SELECT "+blogColumns+" FROM blogs WHERE id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get blog: %w", err)
	}
	return &b, nil
}

// ListBlogs returns every post, drafts included, newest first.
func (s *Store) ListBlogs(ctx context.Context) ([]model.Blog, error) {
	var blogs []model.Blog
	if err := s.db.SelectContext(ctx, &blogs,
		"SELECT "+blogColumns+" FROM blogs ORDER BY created_at DESC, id DESC"); err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	return blogs, nil
}

// ListLiveBlogs returns public posts, most recently pushed first.
func (s *Store) ListLiveBlogs(ctx context.Context) ([]model.Blog, error) {
	var blogs []model.Blog
	if err := s.db.SelectContext(ctx, &blogs, s.q(
		"SELECT "+blogColumns+" FROM blogs WHERE is_public = ? ORDER BY last_pushed_at DESC, id DESC"),
		true); err != nil {
		return nil, fmt.Errorf("list live blogs: %w", err)
	}
	return blogs, nil
}

// UpdateBlog replaces the content fields of the post identified by b.ID.
// Publication state is only changed through PublishBlog and WithdrawBlog.
func (s *Store) UpdateBlog(ctx context.Context, b *model.Blog) error {
	b.UpdatedAt = time.Now().UTC()

	const q = `UPDATE blogs SET
		title = ?, category = ?, summary = ?, content = ?, key_highlights = ?, author = ?, image_url = ?, updated_at = ?
		WHERE id = ?`

	result, err := s.db.ExecContext(ctx, s.q(q),
		b.Title, b.Category, b.Summary, b.Content, b.KeyHighlights, b.Author, b.ImageURL, b.UpdatedAt, b.ID)
	if err != nil {
		return fmt.Errorf("update blog: %w", err)
	}
	return checkAffected(result.RowsAffected())
}

// DeleteBlog removes a blog post.
func (s *Store) DeleteBlog(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.q("DELETE FROM blogs WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete blog: %w", err)
	}
	return checkAffected(result.RowsAffected())
}

// PublishBlog pushes a post live.
func (s *Store) PublishBlog(ctx context.Context, id int64, at time.Time) (*model.Blog, error) {
	return s.updateBlog(ctx, id, "publish blog",
		"UPDATE blogs SET is_public = ?, last_pushed_at = ?, updated_at = ? WHERE id = ?",
		true, at.UTC(), at.UTC(), id)
}

// WithdrawBlog takes a post off the public site.
func (s *Store) WithdrawBlog(ctx context.Context, id int64, at time.Time) (*model.Blog, error) {
	return s.updateBlog(ctx, id, "withdraw blog",
		"UPDATE blogs SET is_public = ?, last_withdrawn_at = ?, updated_at = ? WHERE id = ?",
		false, at.UTC(), at.UTC(), id)
}

func (s *Store) updateBlog(ctx context.Context, id int64, op, query string, args ...interface{}) (*model.Blog, error) {
	result, err := s.db.ExecContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := checkAffected(result.RowsAffected()); err != nil {
		return nil, err
	}
	return s.GetBlog(ctx, id)
}
