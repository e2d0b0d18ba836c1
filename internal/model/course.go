package model

import "time"

// Course levels accepted by the catalogue.
const (
	LevelBeginner     = "Beginner"
	LevelIntermediate = "Intermediate"
	LevelAdvanced     = "Advanced"
)

// Course is a catalogue entry. A course is visible on the public site only
// while IsPublic is set; featured courses sort first.
type Course struct {
	ID              int64             `json:"id" db:"id"`
	Code            string            `json:"code" db:"code"`
	Title           string            `json:"title" db:"title"`
	Category        string            `json:"category" db:"category"`
	Duration        string            `json:"duration" db:"duration"`
	Price           float64           `json:"price" db:"price"`
	Focus           StringList        `json:"focus" db:"focus"`
	Level           string            `json:"level" db:"level"`
	ImageURL        string            `json:"image_url" db:"image_url"`
	Description     CourseDescription `json:"description" db:"description"`
	Requirements    StringList        `json:"requirements" db:"requirements"`
	IsPublic        bool              `json:"is_public" db:"is_public"`
	IsFeatured      bool              `json:"is_featured" db:"is_featured"`
	LastPushedAt    *time.Time        `json:"last_pushed_at" db:"last_pushed_at"`
	LastWithdrawnAt *time.Time        `json:"last_withdrawn_at" db:"last_withdrawn_at"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`
}
