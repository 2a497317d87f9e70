package models

import "github.com/shopspring/decimal"

// CreateUserRequest provisions (or re-fetches) a user by external identity
type CreateUserRequest struct {
	ExternalID string `json:"external_id" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Username   string `json:"username" validate:"required,min=3,max=50"`
}

// JoinQueueRequest represents the request payload for joining the queue
type JoinQueueRequest struct {
	UserID   string          `json:"user_id" validate:"required,uuid"`
	EntryFee decimal.Decimal `json:"entry_fee" validate:"required"`
}

// JoinQueueResponse tells the caller whether they were paired immediately
// (MatchID set) or placed into the waiting queue (QueueID set)
type JoinQueueResponse struct {
	Matched bool   `json:"matched"`
	MatchID string `json:"match_id,omitempty"`
	QueueID string `json:"queue_id,omitempty"`
}

// LeaveQueueRequest represents the request payload for leaving the queue
type LeaveQueueRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

// SubmitSolutionRequest carries a graded submission for an active match.
// IsCorrect is the upstream grader's verdict, so no validate tag: false is a
// legitimate value.
type SubmitSolutionRequest struct {
	UserID    string `json:"user_id" validate:"required,uuid"`
	Code      string `json:"code" validate:"required"`
	Language  string `json:"language" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
}

// SubmitSolutionResponse reports the arbitration result. Winner fields are
// absent while the match stays open.
type SubmitSolutionResponse struct {
	Success        bool    `json:"success"`
	WinnerID       *string `json:"winner_id,omitempty"`
	WinnerUsername *string `json:"winner_username,omitempty"`
}

// LeaderboardEntry represents a single entry in the rating leaderboard
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Rating   int    `json:"rating"`
}

// LeaderboardResponse represents the paginated leaderboard response
type LeaderboardResponse struct {
	Data   []LeaderboardEntry `json:"data"`
	Offset int                `json:"offset"`
	Limit  int                `json:"limit"`
	Total  int64              `json:"total"`
}

// SearchResponse represents the response for player search
type SearchResponse struct {
	GlobalRank int    `json:"global_rank"`
	Username   string `json:"username"`
	Rating     int    `json:"rating"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
