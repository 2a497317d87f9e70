package service

import "codeduel/internal/models"

// outcome is an arbitration verdict. resolved is false while the match must
// stay open.
type outcome struct {
	resolved bool
	winnerID string
}

// decideOutcome arbitrates a match after the caller's submission has been
// recorded on it. opponentSub is the opponent's earlier submission, nil if
// they have not submitted yet.
//
// A lone correct submission wins immediately. When both submissions are
// correct the earlier one wins; identical timestamps fall back to the
// smaller user ID so the verdict is deterministic. An incorrect submission
// never closes the match on its own.
func decideOutcome(match *models.Match, callerID string, callerCorrect bool, opponentSub *models.Submission) outcome {
	opponentID := match.OpponentOf(callerID)

	if callerCorrect {
		if opponentSub == nil || !opponentSub.IsCorrect {
			return outcome{resolved: true, winnerID: callerID}
		}

		callerAt := match.SubmitTimeOf(callerID)
		opponentAt := match.SubmitTimeOf(opponentID)
		switch {
		case callerAt.Before(*opponentAt):
			return outcome{resolved: true, winnerID: callerID}
		case opponentAt.Before(*callerAt):
			return outcome{resolved: true, winnerID: opponentID}
		case callerID < opponentID:
			return outcome{resolved: true, winnerID: callerID}
		default:
			return outcome{resolved: true, winnerID: opponentID}
		}
	}

	if opponentSub != nil && opponentSub.IsCorrect {
		return outcome{resolved: true, winnerID: opponentID}
	}

	return outcome{}
}
