// Package rating is the pure rating engine: fixed deltas, floored at zero.
package rating

const (
	// Initial is the rating assigned to newly provisioned players
	Initial = 1000

	// WinDelta is added to the winner's rating
	WinDelta = 25

	// LossPenalty is subtracted from the loser's rating
	LossPenalty = 15

	// Floor is the minimum rating
	Floor = 0
)

// Apply returns the post-match ratings for the winner and loser.
func Apply(winner, loser int) (newWinner, newLoser int) {
	newWinner = winner + WinDelta
	newLoser = loser - LossPenalty
	if newLoser < Floor {
		newLoser = Floor
	}
	return newWinner, newLoser
}
