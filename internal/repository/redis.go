package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// RatingsKey is the Redis sorted set key for the rating leaderboard
	RatingsKey = "arena:ratings"

	// MetadataKey is the Redis hash key for per-player display ratings
	MetadataKey = "arena:metadata"

	// VersionKey tracks the global leaderboard version for efficient change detection
	VersionKey = "arena:version"

	// TimestampDivisor is used in composite score calculation to prevent precision loss
	// Using 10^10 ensures timestamp doesn't significantly affect the score
	TimestampDivisor = 10_000_000_000
)

// RatingCache is the read-optimized leaderboard view of player ratings.
// Postgres is the source of truth; settlements push rating changes here
// asynchronously through the worker pool.
type RatingCache struct {
	client *redis.Client
}

// NewRatingCache creates a new Redis-backed rating cache
func NewRatingCache(client *redis.Client) *RatingCache {
	return &RatingCache{
		client: client,
	}
}

// ComputeCompositeScore calculates a composite score for consistent tie-breaking
// Formula: rating + (1 - timestamp/10^10)
// Players who reached the same rating earlier get a slightly higher value,
// so ties rank the longer-standing rating first.
func ComputeCompositeScore(rating int, timestamp int64) float64 {
	return float64(rating) + (1.0 - float64(timestamp)/TimestampDivisor)
}

// ExtractBaseRating extracts the integer rating from a composite score
func ExtractBaseRating(compositeScore float64) int {
	return int(compositeScore)
}

// UpdateRating updates a player's rating in the leaderboard and bumps the
// global version so connected clients learn something changed
func (r *RatingCache) UpdateRating(ctx context.Context, username string, rating int) error {
	timestamp := time.Now().UnixNano()
	compositeScore := ComputeCompositeScore(rating, timestamp)

	pipe := r.client.Pipeline()

	pipe.ZAdd(ctx, RatingsKey, redis.Z{
		Score:  compositeScore,
		Member: username,
	})

	// Base rating for display lives in the hash
	pipe.HSet(ctx, MetadataKey, username, rating)

	pipe.Incr(ctx, VersionKey)

	_, err := pipe.Exec(ctx)
	return err
}

// GetPlayerRating retrieves a player's display rating
func (r *RatingCache) GetPlayerRating(ctx context.Context, username string) (int, error) {
	ratingStr, err := r.client.HGet(ctx, MetadataKey, username).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, fmt.Errorf("player not found")
		}
		return 0, err
	}

	rating, err := strconv.Atoi(ratingStr)
	if err != nil {
		return 0, fmt.Errorf("invalid rating format: %w", err)
	}

	return rating, nil
}

// GetPlayerRatingBatch retrieves display ratings for multiple players using HMGET
func (r *RatingCache) GetPlayerRatingBatch(ctx context.Context, usernames []string) (map[string]int, error) {
	if len(usernames) == 0 {
		return make(map[string]int), nil
	}

	results, err := r.client.HMGet(ctx, MetadataKey, usernames...).Result()
	if err != nil {
		return nil, err
	}

	ratings := make(map[string]int, len(usernames))
	for i, result := range results {
		if result == nil {
			continue // player not cached
		}

		ratingStr, ok := result.(string)
		if !ok {
			continue
		}

		rating, err := strconv.Atoi(ratingStr)
		if err != nil {
			continue
		}

		ratings[usernames[i]] = rating
	}

	return ratings, nil
}

// GetPlayerRank calculates a player's rank using composite score comparison.
// Returns the rank (1-indexed) or an error if the player is not cached.
func (r *RatingCache) GetPlayerRank(ctx context.Context, username string) (int, error) {
	compositeScore, err := r.client.ZScore(ctx, RatingsKey, username).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, fmt.Errorf("player not found")
		}
		return 0, err
	}

	// Count players strictly above; earlier timestamps rank higher on ties
	count, err := r.client.ZCount(ctx, RatingsKey, fmt.Sprintf("(%f", compositeScore), "+inf").Result()
	if err != nil {
		return 0, err
	}

	return int(count) + 1, nil
}

// GetVersion returns the current global leaderboard version number
func (r *RatingCache) GetVersion(ctx context.Context) (int64, error) {
	version, err := r.client.Get(ctx, VersionKey).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil // version not set yet
		}
		return 0, err
	}
	return version, nil
}

// GetTopPlayers retrieves a page of the leaderboard sorted by composite
// score in descending order, with scores rewritten to base ratings
func (r *RatingCache) GetTopPlayers(ctx context.Context, offset, limit int) ([]redis.Z, error) {
	start := int64(offset)
	stop := int64(offset + limit - 1)

	results, err := r.client.ZRevRangeWithScores(ctx, RatingsKey, start, stop).Result()
	if err != nil {
		return nil, err
	}

	for i := range results {
		results[i].Score = float64(ExtractBaseRating(results[i].Score))
	}

	return results, nil
}

// GetTotalPlayers returns the total number of players in the leaderboard
func (r *RatingCache) GetTotalPlayers(ctx context.Context) (int64, error) {
	return r.client.ZCard(ctx, RatingsKey).Result()
}

// BulkUpdateRatings updates multiple players' ratings efficiently using a pipeline
func (r *RatingCache) BulkUpdateRatings(ctx context.Context, players map[string]int) error {
	pipe := r.client.Pipeline()

	timestamp := time.Now().UnixNano()

	for username, rating := range players {
		compositeScore := ComputeCompositeScore(rating, timestamp)

		pipe.ZAdd(ctx, RatingsKey, redis.Z{
			Score:  compositeScore,
			Member: username,
		})

		pipe.HSet(ctx, MetadataKey, username, rating)

		// Small timestamp increment for deterministic ordering within batch
		timestamp++
	}

	pipe.Incr(ctx, VersionKey)

	_, err := pipe.Exec(ctx)
	return err
}

// Ping checks if Redis is reachable
func (r *RatingCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RatingCache) Close() error {
	return r.client.Close()
}
