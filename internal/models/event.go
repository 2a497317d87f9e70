package models

// Match event types pushed to WebSocket clients
const (
	EventMatchFound     = "MATCH_FOUND"
	EventMatchCompleted = "MATCH_COMPLETED"
	EventMatchDrawn     = "MATCH_DRAWN"
)

// MatchEvent is broadcast to connected clients when a match is created,
// decided, or force-drawn. Purely informational; delivery is best-effort.
type MatchEvent struct {
	Type           string `json:"type"`
	MatchID        string `json:"match_id"`
	Player1ID      string `json:"player1_id"`
	Player2ID      string `json:"player2_id"`
	WinnerID       string `json:"winner_id,omitempty"`
	WinnerUsername string `json:"winner_username,omitempty"`
	PrizePool      string `json:"prize_pool,omitempty"`
}
