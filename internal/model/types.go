package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList is a []string persisted as a JSON array. Both Postgres (JSONB)
// and SQLite (TEXT) columns scan into it.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// CourseDescription is the structured description block of a course.
type CourseDescription struct {
	Definition     string   `json:"definition"`
	LearningPoints []string `json:"learningPoints"`
	Outcome        string   `json:"outcome"`
}

// Value implements driver.Valuer.
func (d CourseDescription) Value() (driver.Value, error) {
	if d.LearningPoints == nil {
		d.LearningPoints = []string{}
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (d *CourseDescription) Scan(src interface{}) error {
	return scanJSON(src, d)
}

func scanJSON(src interface{}, dst interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into %T", src, dst)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}
