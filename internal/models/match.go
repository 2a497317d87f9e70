package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MatchStatus is the lifecycle state of a match. The only transitions are
// active → completed (a winner was decided) and active → draw (force-closed
// by the sweeper); both are terminal.
type MatchStatus string

const (
	MatchStatusActive    MatchStatus = "active"
	MatchStatusCompleted MatchStatus = "completed"
	MatchStatusDraw      MatchStatus = "draw"
)

// Match is a head-to-head duel between two players. Usernames and problem
// metadata are denormalized snapshots taken at creation; PrizePool is fixed
// at 90% of the combined entry fees.
type Match struct {
	ID                string          `gorm:"type:uuid;primaryKey" json:"id"`
	Player1ID         string          `gorm:"type:uuid;index;not null" json:"player1_id"`
	Player2ID         string          `gorm:"type:uuid;index;not null" json:"player2_id"`
	Player1Username   string          `gorm:"not null" json:"player1_username"`
	Player2Username   string          `gorm:"not null" json:"player2_username"`
	ProblemID         string          `gorm:"type:uuid;not null" json:"problem_id"`
	ProblemTitle      string          `json:"problem_title"`
	ProblemDifficulty string          `json:"problem_difficulty"`
	EntryFee          decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"entry_fee"`
	PrizePool         decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"prize_pool"`
	Status            MatchStatus     `gorm:"not null;index" json:"status"`
	Player1Submitted  bool            `gorm:"not null;default:false" json:"player1_submitted"`
	Player2Submitted  bool            `gorm:"not null;default:false" json:"player2_submitted"`
	Player1SubmitTime *time.Time      `json:"player1_submit_time,omitempty"`
	Player2SubmitTime *time.Time      `json:"player2_submit_time,omitempty"`
	WinnerID          *string         `gorm:"type:uuid" json:"winner_id,omitempty"`
	WinnerUsername    *string         `json:"winner_username,omitempty"`
	StartedAt         time.Time       `json:"started_at"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
}

// TableName specifies the table name for GORM
func (Match) TableName() string {
	return "matches"
}

// IsParticipant reports whether userID is one of the two players.
func (m *Match) IsParticipant(userID string) bool {
	return m.Player1ID == userID || m.Player2ID == userID
}

// OpponentOf returns the other player's ID. Callers must check
// IsParticipant first.
func (m *Match) OpponentOf(userID string) string {
	if m.Player1ID == userID {
		return m.Player2ID
	}
	return m.Player1ID
}

// UsernameOf returns the snapshot username for a participant.
func (m *Match) UsernameOf(userID string) string {
	if m.Player1ID == userID {
		return m.Player1Username
	}
	return m.Player2Username
}

// HasSubmitted reports whether the participant already has a recorded
// submission on this match.
func (m *Match) HasSubmitted(userID string) bool {
	if m.Player1ID == userID {
		return m.Player1Submitted
	}
	return m.Player2Submitted
}

// SubmitTimeOf returns the participant's submission time, nil if they have
// not submitted.
func (m *Match) SubmitTimeOf(userID string) *time.Time {
	if m.Player1ID == userID {
		return m.Player1SubmitTime
	}
	return m.Player2SubmitTime
}

// SetSubmitted flags the participant as having submitted at the given time.
func (m *Match) SetSubmitted(userID string, at time.Time) {
	if m.Player1ID == userID {
		m.Player1Submitted = true
		m.Player1SubmitTime = &at
		return
	}
	m.Player2Submitted = true
	m.Player2SubmitTime = &at
}
