package models

import "time"

// Submission is one player's answer for a match. The log is append-only;
// the unique (match_id, user_id) index backs the one-submission-per-player
// rule enforced by the match service. IsCorrect is a verdict computed
// upstream and trusted here.
type Submission struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	MatchID     string    `gorm:"type:uuid;uniqueIndex:idx_submissions_match_user;not null" json:"match_id"`
	UserID      string    `gorm:"type:uuid;uniqueIndex:idx_submissions_match_user;not null" json:"user_id"`
	Username    string    `json:"username"`
	Code        string    `gorm:"type:text" json:"code"`
	Language    string    `json:"language"`
	IsCorrect   bool      `gorm:"not null" json:"is_correct"`
	SubmittedAt time.Time `gorm:"not null" json:"submitted_at"`
}

// TableName specifies the table name for GORM
func (Submission) TableName() string {
	return "submissions"
}
