package model

import "time"

// DefaultTestimonialRole is used when a submitter does not describe themselves.
const DefaultTestimonialRole = "Student"

// Testimonial is a public review awaiting (or past) moderation.
type Testimonial struct {
	ID         int64     `json:"id" db:"id"`
	UserName   string    `json:"user_name" db:"user_name"`
	UserRole   string    `json:"user_role" db:"user_role"`
	Message    string    `json:"message" db:"message"`
	Rating     int       `json:"rating" db:"rating"`
	ImageURL   *string   `json:"image_url" db:"image_url"`
	IsApproved bool      `json:"is_approved" db:"is_approved"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
