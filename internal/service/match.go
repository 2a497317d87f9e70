package service

import (
	"context"
	"time"

	"codeduel/internal/ledger"
	"codeduel/internal/models"
	"codeduel/internal/rating"
	"codeduel/internal/repository"
	"codeduel/internal/telemetry"

	"github.com/google/uuid"
)

// MatchService records submissions, arbitrates the winner and settles the
// match. Submission, arbitration and settlement happen in one transaction
// under a lock on the match row, so two racing submissions are serialized
// and the loser of the race observes the already-settled match.
type MatchService struct {
	store      repository.Datastore
	reporter   telemetry.Reporter
	events     EventPublisher
	ratings    RatingSink
	platformID string
}

// NewMatchService creates the match service. platformID is the user ID of
// the reserved platform account that accrues the retained prize pool share.
func NewMatchService(store repository.Datastore, reporter telemetry.Reporter, events EventPublisher, ratings RatingSink, platformID string) *MatchService {
	return &MatchService{
		store:      store,
		reporter:   reporter,
		events:     events,
		ratings:    ratings,
		platformID: platformID,
	}
}

// settlement carries post-commit facts out of the transaction so events and
// cache syncs only happen for durable state.
type settlement struct {
	winnerID       string
	winnerUsername string
	winnerRating   int
	loserUsername  string
	loserRating    int
}

// SubmitSolution records a graded submission for an active match and, when
// the verdict decides the duel, settles wallets and ratings atomically.
func (s *MatchService) SubmitSolution(ctx context.Context, matchID string, req *models.SubmitSolutionRequest) (*models.SubmitSolutionResponse, error) {
	resp, settled, err := s.submitSolution(ctx, matchID, req)
	if err != nil {
		s.reporter.ReportError("match.submit_solution", err, map[string]any{
			"match_id": matchID,
			"user_id":  req.UserID,
		})
		return nil, err
	}

	if settled != nil {
		s.events.PublishMatch(models.MatchEvent{
			Type:           models.EventMatchCompleted,
			MatchID:        matchID,
			WinnerID:       settled.winnerID,
			WinnerUsername: settled.winnerUsername,
		})
		s.ratings.SyncRating(settled.winnerUsername, settled.winnerRating)
		s.ratings.SyncRating(settled.loserUsername, settled.loserRating)
	}
	return resp, nil
}

func (s *MatchService) submitSolution(ctx context.Context, matchID string, req *models.SubmitSolutionRequest) (*models.SubmitSolutionResponse, *settlement, error) {
	var (
		resp    *models.SubmitSolutionResponse
		settled *settlement
	)
	err := s.store.InTx(ctx, func(ds repository.Datastore) error {
		match, err := ds.GetMatchForUpdate(ctx, matchID)
		if err != nil {
			return err
		}
		if match == nil {
			return ErrMatchNotFound
		}
		if match.Status != models.MatchStatusActive {
			return ErrMatchNotActive
		}
		if !match.IsParticipant(req.UserID) {
			return ErrNotParticipant
		}
		if match.HasSubmitted(req.UserID) {
			return ErrAlreadySubmitted
		}

		now := time.Now().UTC()
		if err := ds.CreateSubmission(ctx, &models.Submission{
			ID:          uuid.NewString(),
			MatchID:     match.ID,
			UserID:      req.UserID,
			Username:    match.UsernameOf(req.UserID),
			Code:        req.Code,
			Language:    req.Language,
			IsCorrect:   req.IsCorrect,
			SubmittedAt: now,
		}); err != nil {
			return err
		}
		match.SetSubmitted(req.UserID, now)

		opponentSub, err := ds.GetSubmission(ctx, match.ID, match.OpponentOf(req.UserID))
		if err != nil {
			return err
		}

		out := decideOutcome(match, req.UserID, req.IsCorrect, opponentSub)
		if out.resolved {
			settled, err = s.settle(ctx, ds, match, out.winnerID, now)
			if err != nil {
				return err
			}
		}

		if err := ds.SaveMatch(ctx, match); err != nil {
			return err
		}

		resp = &models.SubmitSolutionResponse{
			Success:        true,
			WinnerID:       match.WinnerID,
			WinnerUsername: match.WinnerUsername,
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return resp, settled, nil
}

// settle closes the match in the caller's transaction: prize to the winner,
// retained share to the platform account, rating and record updates for both
// players. Locks user rows in sorted ID order.
func (s *MatchService) settle(ctx context.Context, ds repository.Datastore, match *models.Match, winnerID string, now time.Time) (*settlement, error) {
	winnerUsername := match.UsernameOf(winnerID)
	match.Status = models.MatchStatusCompleted
	match.WinnerID = &winnerID
	match.WinnerUsername = &winnerUsername
	match.CompletedAt = &now

	if err := ledger.Credit(ctx, ds, winnerID, match.PrizePool, models.TransactionPrizeWin, &match.ID, "Prize for winning match"); err != nil {
		return nil, err
	}

	platformCut := match.EntryFee.Mul(two).Sub(match.PrizePool)
	if platformCut.IsPositive() {
		if err := ledger.Credit(ctx, ds, s.platformID, platformCut, models.TransactionPlatformFee, &match.ID, "Platform share of prize pool"); err != nil {
			return nil, err
		}
	}

	loserID := match.OpponentOf(winnerID)
	firstID, secondID := winnerID, loserID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}

	first, err := ds.GetUserForUpdate(ctx, firstID)
	if err != nil {
		return nil, err
	}
	second, err := ds.GetUserForUpdate(ctx, secondID)
	if err != nil {
		return nil, err
	}
	if first == nil || second == nil {
		return nil, ErrUserNotFound
	}

	winner, loser := first, second
	if winner.ID != winnerID {
		winner, loser = second, first
	}

	winner.Rating, loser.Rating = rating.Apply(winner.Rating, loser.Rating)
	winner.Wins++
	loser.Losses++

	if err := ds.SaveUser(ctx, winner); err != nil {
		return nil, err
	}
	if err := ds.SaveUser(ctx, loser); err != nil {
		return nil, err
	}

	return &settlement{
		winnerID:       winnerID,
		winnerUsername: winner.Username,
		winnerRating:   winner.Rating,
		loserUsername:  loser.Username,
		loserRating:    loser.Rating,
	}, nil
}

// ExpireStaleMatches force-draws active matches that started before the ttl
// window: both entry fees are refunded and no ratings change. Each match is
// drawn in its own transaction so one failure does not block the rest.
// Returns how many matches were drawn.
func (s *MatchService) ExpireStaleMatches(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-ttl)
	stale, err := s.store.ListActiveMatchesBefore(ctx, cutoff)
	if err != nil {
		s.reporter.ReportError("match.expire_stale", err, nil)
		return 0, err
	}

	drawn := 0
	for i := range stale {
		if err := s.drawMatch(ctx, stale[i].ID, cutoff); err != nil {
			s.reporter.ReportError("match.draw", err, map[string]any{"match_id": stale[i].ID})
			continue
		}
		drawn++
	}
	return drawn, nil
}

func (s *MatchService) drawMatch(ctx context.Context, matchID string, cutoff time.Time) error {
	var drawnMatch *models.Match
	err := s.store.InTx(ctx, func(ds repository.Datastore) error {
		match, err := ds.GetMatchForUpdate(ctx, matchID)
		if err != nil {
			return err
		}
		// a racing submission may have settled the match since listing
		if match == nil || match.Status != models.MatchStatusActive || match.StartedAt.After(cutoff) {
			return nil
		}

		now := time.Now().UTC()
		match.Status = models.MatchStatusDraw
		match.CompletedAt = &now

		for _, playerID := range []string{match.Player1ID, match.Player2ID} {
			if err := ledger.Credit(ctx, ds, playerID, match.EntryFee, models.TransactionFeeRefund, &match.ID, "Refund for drawn match"); err != nil {
				return err
			}
		}

		if err := ds.SaveMatch(ctx, match); err != nil {
			return err
		}
		drawnMatch = match
		return nil
	})
	if err != nil {
		return err
	}

	if drawnMatch != nil {
		s.events.PublishMatch(models.MatchEvent{
			Type:      models.EventMatchDrawn,
			MatchID:   drawnMatch.ID,
			Player1ID: drawnMatch.Player1ID,
			Player2ID: drawnMatch.Player2ID,
		})
	}
	return nil
}

// GetMatch fetches a match by ID
func (s *MatchService) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, ErrMatchNotFound
	}
	return match, nil
}

// GetUserTransactions returns the user's most recent ledger entries
func (s *MatchService) GetUserTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	return s.store.ListUserTransactions(ctx, userID, limit)
}

// GetMatchTransactions returns every ledger entry tied to a match
func (s *MatchService) GetMatchTransactions(ctx context.Context, matchID string) ([]models.Transaction, error) {
	return s.store.ListMatchTransactions(ctx, matchID)
}
