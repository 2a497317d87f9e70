package service

import (
	"context"
	"fmt"

	"codeduel/internal/models"
	"codeduel/internal/repository"

	"github.com/redis/go-redis/v9"
)

// Pinger is the liveness slice of the datastore used by health checks
type Pinger interface {
	Ping(ctx context.Context) error
}

// LeaderboardService serves rating leaderboard reads from the Redis cache.
// Postgres stays the source of truth; settlements feed the cache through
// the worker pool.
type LeaderboardService struct {
	cache *repository.RatingCache
	db    Pinger
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(cache *repository.RatingCache, db Pinger) *LeaderboardService {
	return &LeaderboardService{
		cache: cache,
		db:    db,
	}
}

// GetLeaderboard retrieves a leaderboard page with tie-aware ranking (1224)
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, offset, limit int) (*models.LeaderboardResponse, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	players, err := s.cache.GetTopPlayers(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top players: %w", err)
	}

	total, err := s.cache.GetTotalPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get total players: %w", err)
	}

	usernames := make([]string, len(players))
	for i, p := range players {
		usernames[i] = p.Member.(string)
	}

	ratings, err := s.cache.GetPlayerRatingBatch(ctx, usernames)
	if err != nil {
		return nil, fmt.Errorf("failed to get player ratings: %w", err)
	}

	return &models.LeaderboardResponse{
		Data:   rankEntries(players, ratings, offset),
		Offset: offset,
		Limit:  limit,
		Total:  total,
	}, nil
}

// SearchPlayer returns a player's global rank and rating
func (s *LeaderboardService) SearchPlayer(ctx context.Context, username string) (*models.SearchResponse, error) {
	rank, err := s.cache.GetPlayerRank(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get player rank: %w", err)
	}

	playerRating, err := s.cache.GetPlayerRating(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get player rating: %w", err)
	}

	return &models.SearchResponse{
		GlobalRank: rank,
		Username:   username,
		Rating:     playerRating,
	}, nil
}

// rankEntries applies the 1224 ranking system: players with the same rating
// share a rank, and the next distinct rating is offset by the number of
// players above it.
func rankEntries(players []redis.Z, ratings map[string]int, offset int) []models.LeaderboardEntry {
	entries := make([]models.LeaderboardEntry, 0, len(players))
	if len(players) == 0 {
		return entries
	}

	currentRank := offset + 1
	var previousRating int
	sameRankCount := 0

	for i, p := range players {
		username := p.Member.(string)
		playerRating := ratings[username]

		if i == 0 {
			previousRating = playerRating
			sameRankCount = 1
		} else if playerRating == previousRating {
			sameRankCount++
		} else {
			currentRank += sameRankCount
			previousRating = playerRating
			sameRankCount = 1
		}

		entries = append(entries, models.LeaderboardEntry{
			Rank:     currentRank,
			Username: username,
			Rating:   playerRating,
		})
	}

	return entries
}

// HealthCheck checks the health of both Redis and PostgreSQL
func (s *LeaderboardService) HealthCheck(ctx context.Context) error {
	if err := s.cache.Ping(ctx); err != nil {
		return fmt.Errorf("Redis health check failed: %w", err)
	}

	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("PostgreSQL health check failed: %w", err)
	}

	return nil
}
