package model

import "time"

// Defaults applied to blog posts when the author leaves the fields empty.
const (
	DefaultBlogCategory = "General"
	DefaultBlogAuthor   = "Bright Coders Team"
)

// Blog is an article. Drafts stay hidden until pushed live.
type Blog struct {
	ID              int64      `json:"id" db:"id"`
	Title           string     `json:"title" db:"title"`
	Category        string     `json:"category" db:"category"`
	Summary         string     `json:"summary" db:"summary"`
	Content         string     `json:"content" db:"content"`
	KeyHighlights   StringList `json:"key_highlights" db:"key_highlights"`
	Author          string     `json:"author" db:"author"`
	ImageURL        string     `json:"image_url" db:"image_url"`
	IsPublic        bool       `json:"is_public" db:"is_public"`
	LastPushedAt    *time.Time `json:"last_pushed_at" db:"last_pushed_at"`
	LastWithdrawnAt *time.Time `json:"last_withdrawn_at" db:"last_withdrawn_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}
