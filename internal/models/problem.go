package models

import "time"

// Problem is a catalog entry. Grading happens outside this system; matches
// only snapshot the title and difficulty for display.
type Problem struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	Title      string    `gorm:"not null" json:"title"`
	Slug       string    `gorm:"uniqueIndex;not null" json:"slug"`
	Difficulty string    `gorm:"not null" json:"difficulty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Problem) TableName() string {
	return "problems"
}
