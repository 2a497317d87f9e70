package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeCompositeScorePreservesBaseRating(t *testing.T) {
	now := time.Now().UnixNano()

	for _, rating := range []int{0, 1, 1000, 1025, 4999} {
		score := ComputeCompositeScore(rating, now)
		assert.Equal(t, rating, ExtractBaseRating(score), "rating %d", rating)
	}
}

func TestComputeCompositeScoreEarlierTimestampRanksHigher(t *testing.T) {
	earlier := time.Now().UnixNano()
	later := earlier + int64(time.Second)

	earlierScore := ComputeCompositeScore(1500, earlier)
	laterScore := ComputeCompositeScore(1500, later)

	assert.Greater(t, earlierScore, laterScore)
}

func TestComputeCompositeScoreRatingDominatesTimestamp(t *testing.T) {
	old := time.Now().Add(-24 * time.Hour).UnixNano()
	fresh := time.Now().UnixNano()

	// a higher rating always outranks a lower one, however old
	lower := ComputeCompositeScore(1000, old)
	higher := ComputeCompositeScore(1001, fresh)

	assert.Greater(t, higher, lower)
}
