package service

import (
	"context"
	"errors"
	"time"

	"codeduel/internal/ledger"
	"codeduel/internal/models"
	"codeduel/internal/problems"
	"codeduel/internal/rating"
	"codeduel/internal/repository"
	"codeduel/internal/telemetry"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventPublisher pushes match lifecycle events to connected clients.
// Delivery is best-effort and must never block.
type EventPublisher interface {
	PublishMatch(evt models.MatchEvent)
}

// RatingSink receives rating changes for asynchronous propagation to the
// leaderboard cache.
type RatingSink interface {
	SyncRating(username string, ratingValue int)
}

// ProblemPicker selects the problem for a freshly created match
type ProblemPicker interface {
	RandomPick(ctx context.Context) (*models.Problem, error)
}

var (
	two        = decimal.NewFromInt(2)
	prizeShare = decimal.NewFromFloat(0.9)
)

// MatchmakingService owns user provisioning and the matchmaking queue. Each
// join either pairs the caller with a compatible waiting player inside a
// single transaction or parks them in the queue.
type MatchmakingService struct {
	store    repository.Datastore
	catalog  ProblemPicker
	reporter telemetry.Reporter
	events   EventPublisher
	ratings  RatingSink
	band     int
}

// NewMatchmakingService creates the matchmaking service. band is the maximum
// rating distance between paired players.
func NewMatchmakingService(store repository.Datastore, catalog ProblemPicker, reporter telemetry.Reporter, events EventPublisher, ratings RatingSink, band int) *MatchmakingService {
	return &MatchmakingService{
		store:    store,
		catalog:  catalog,
		reporter: reporter,
		events:   events,
		ratings:  ratings,
		band:     band,
	}
}

// CreateUser provisions a user for the given external identity. Calling it
// again with the same external ID returns the existing user unchanged.
func (s *MatchmakingService) CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	user, err := s.createUser(ctx, req)
	if err != nil {
		s.reporter.ReportError("matchmaking.create_user", err, map[string]any{"external_id": req.ExternalID})
		return nil, err
	}
	s.ratings.SyncRating(user.Username, user.Rating)
	return user, nil
}

func (s *MatchmakingService) createUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	var user *models.User
	err := s.store.InTx(ctx, func(ds repository.Datastore) error {
		existing, err := ds.GetUserByExternalID(ctx, req.ExternalID)
		if err != nil {
			return err
		}
		if existing != nil {
			user = existing
			return nil
		}

		user = &models.User{
			ID:            uuid.NewString(),
			ExternalID:    req.ExternalID,
			Email:         req.Email,
			Username:      req.Username,
			Rating:        rating.Initial,
			WalletBalance: decimal.Zero,
		}
		return ds.CreateUser(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// JoinQueue puts the user into matchmaking with the given entry fee. If a
// compatible opponent is already waiting, both entry fees are escrowed and a
// match is created atomically; otherwise the user becomes a waiting entry.
func (s *MatchmakingService) JoinQueue(ctx context.Context, userID string, entryFee decimal.Decimal) (*models.JoinQueueResponse, error) {
	resp, match, err := s.joinQueue(ctx, userID, entryFee)
	if err != nil {
		s.reporter.ReportError("matchmaking.join_queue", err, map[string]any{"user_id": userID})
		return nil, err
	}

	if match != nil {
		s.events.PublishMatch(models.MatchEvent{
			Type:      models.EventMatchFound,
			MatchID:   match.ID,
			Player1ID: match.Player1ID,
			Player2ID: match.Player2ID,
			PrizePool: match.PrizePool.String(),
		})
	}
	return resp, nil
}

func (s *MatchmakingService) joinQueue(ctx context.Context, userID string, entryFee decimal.Decimal) (*models.JoinQueueResponse, *models.Match, error) {
	if !entryFee.IsPositive() {
		return nil, nil, ErrInvalidEntryFee
	}

	var (
		resp  *models.JoinQueueResponse
		match *models.Match
	)
	err := s.store.InTx(ctx, func(ds repository.Datastore) error {
		user, err := ds.GetUserForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}
		if user.WalletBalance.LessThan(entryFee) {
			return ErrInsufficientBalance
		}

		waiting, err := ds.FindWaitingEntry(ctx, userID)
		if err != nil {
			return err
		}
		if waiting != nil {
			return ErrAlreadyQueued
		}

		inMatch, err := ds.HasActiveMatch(ctx, userID)
		if err != nil {
			return err
		}
		if inMatch {
			return ErrAlreadyInMatch
		}

		candidate, err := ds.FindCompatibleEntry(ctx, userID, entryFee, user.Rating-s.band, user.Rating+s.band)
		if err != nil {
			return err
		}
		if candidate == nil {
			entry := s.newQueueEntry(user, entryFee)
			if err := ds.CreateQueueEntry(ctx, entry); err != nil {
				return err
			}
			resp = &models.JoinQueueResponse{QueueID: entry.ID}
			return nil
		}

		opponent, err := ds.GetUserForUpdate(ctx, candidate.UserID)
		if err != nil {
			return err
		}
		if opponent == nil {
			return ErrOpponentNotFound
		}

		problem, err := s.catalog.RandomPick(ctx)
		if err != nil {
			if errors.Is(err, problems.ErrEmptyCatalog) {
				return ErrProblemCatalogEmpty
			}
			return err
		}

		matchID := uuid.NewString()

		// The waiting player's balance may have dropped since they queued.
		// Retire their entry and queue the joiner instead of failing the join.
		err = ledger.Debit(ctx, ds, opponent.ID, entryFee, models.TransactionEntryFee, &matchID, "Entry fee for match")
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			if uerr := ds.UpdateQueueEntryStatus(ctx, candidate.ID, models.QueueStatusWaiting, models.QueueStatusExpired); uerr != nil {
				return uerr
			}
			entry := s.newQueueEntry(user, entryFee)
			if cerr := ds.CreateQueueEntry(ctx, entry); cerr != nil {
				return cerr
			}
			resp = &models.JoinQueueResponse{QueueID: entry.ID}
			return nil
		}
		if err != nil {
			return err
		}

		if err := ledger.Debit(ctx, ds, user.ID, entryFee, models.TransactionEntryFee, &matchID, "Entry fee for match"); err != nil {
			return err
		}

		match = &models.Match{
			ID:                matchID,
			Player1ID:         opponent.ID,
			Player2ID:         user.ID,
			Player1Username:   opponent.Username,
			Player2Username:   user.Username,
			ProblemID:         problem.ID,
			ProblemTitle:      problem.Title,
			ProblemDifficulty: problem.Difficulty,
			EntryFee:          entryFee,
			PrizePool:         entryFee.Mul(two).Mul(prizeShare),
			Status:            models.MatchStatusActive,
			StartedAt:         time.Now().UTC(),
		}
		if err := ds.CreateMatch(ctx, match); err != nil {
			return err
		}

		if err := ds.UpdateQueueEntryStatus(ctx, candidate.ID, models.QueueStatusWaiting, models.QueueStatusMatched); err != nil {
			return err
		}

		resp = &models.JoinQueueResponse{Matched: true, MatchID: match.ID}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if !resp.Matched {
		match = nil
	}
	return resp, match, nil
}

func (s *MatchmakingService) newQueueEntry(user *models.User, entryFee decimal.Decimal) *models.QueueEntry {
	return &models.QueueEntry{
		ID:       uuid.NewString(),
		UserID:   user.ID,
		Username: user.Username,
		Rating:   user.Rating,
		EntryFee: entryFee,
		Status:   models.QueueStatusWaiting,
	}
}

// LeaveQueue cancels the user's waiting entry. Leaving without a waiting
// entry is a no-op, not an error.
func (s *MatchmakingService) LeaveQueue(ctx context.Context, userID string) error {
	err := s.store.InTx(ctx, func(ds repository.Datastore) error {
		waiting, err := ds.FindWaitingEntry(ctx, userID)
		if err != nil {
			return err
		}
		if waiting == nil {
			return nil
		}
		return ds.UpdateQueueEntryStatus(ctx, waiting.ID, models.QueueStatusWaiting, models.QueueStatusCancelled)
	})
	if err != nil {
		s.reporter.ReportError("matchmaking.leave_queue", err, map[string]any{"user_id": userID})
	}
	return err
}

// ExpireStaleQueueEntries retires waiting entries older than ttl and returns
// how many were expired. No funds move; fees are only escrowed at pairing.
func (s *MatchmakingService) ExpireStaleQueueEntries(ctx context.Context, ttl time.Duration) (int64, error) {
	n, err := s.store.ExpireWaitingBefore(ctx, time.Now().UTC().Add(-ttl))
	if err != nil {
		s.reporter.ReportError("matchmaking.expire_queue", err, nil)
	}
	return n, err
}

// GetUser fetches a user by ID
func (s *MatchmakingService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
