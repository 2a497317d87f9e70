package service

import (
	"context"
	"testing"
	"time"

	"codeduel/internal/models"
	"codeduel/internal/problems"
	"codeduel/internal/rating"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMatchmakingFixture(store *memStore) (*MatchmakingService, *fakePublisher, *fakeRatings, *fakeReporter) {
	events := &fakePublisher{}
	ratings := newFakeRatings()
	reporter := &fakeReporter{}
	svc := NewMatchmakingService(store, &stubPicker{problem: testProblem()}, reporter, events, ratings, 200)
	return svc, events, ratings, reporter
}

func TestCreateUserIsIdempotentPerExternalID(t *testing.T) {
	store := newMemStore()
	svc, _, ratings, _ := newMatchmakingFixture(store)
	ctx := context.Background()

	req := &models.CreateUserRequest{
		ExternalID: "auth0|alice",
		Email:      "alice@test.dev",
		Username:   "alice",
	}

	first, err := svc.CreateUser(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, rating.Initial, first.Rating)
	assert.True(t, first.WalletBalance.IsZero())

	second, err := svc.CreateUser(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	assert.Equal(t, rating.Initial, ratings.syncs["alice"])
}

func TestJoinQueueWaitsWhenNoOpponent(t *testing.T) {
	store := newMemStore()
	svc, events, _, _ := newMatchmakingFixture(store)
	ctx := context.Background()

	aliceID := store.addUser("alice", 1000, 100)

	resp, err := svc.JoinQueue(ctx, aliceID, decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.False(t, resp.Matched)
	assert.NotEmpty(t, resp.QueueID)
	assert.Empty(t, resp.MatchID)

	// no escrow until a match is made
	assert.True(t, store.balanceOf(aliceID).Equal(decimal.NewFromInt(100)))

	entry, err := store.FindWaitingEntry(ctx, aliceID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "alice", entry.Username)
	assert.Equal(t, 1000, entry.Rating)

	assert.Empty(t, events.events)
}

func TestJoinQueuePairsCompatibleOpponent(t *testing.T) {
	store := newMemStore()
	svc, events, _, _ := newMatchmakingFixture(store)
	ctx := context.Background()

	aliceID := store.addUser("alice", 1000, 100)
	bobID := store.addUser("bob", 1150, 100)
	fee := decimal.NewFromInt(10)

	first, err := svc.JoinQueue(ctx, aliceID, fee)
	require.NoError(t, err)
	require.False(t, first.Matched)

	second, err := svc.JoinQueue(ctx, bobID, fee)
	require.NoError(t, err)
	require.True(t, second.Matched)
	require.NotEmpty(t, second.MatchID)

	match, err := store.GetMatch(ctx, second.MatchID)
	require.NoError(t, err)
	require.NotNil(t, match)

	// the waiting player is player1, the joiner player2
	assert.Equal(t, aliceID, match.Player1ID)
	assert.Equal(t, bobID, match.Player2ID)
	assert.Equal(t, models.MatchStatusActive, match.Status)
	assert.Equal(t, "Two Sum", match.ProblemTitle)

	// prize pool is 90% of the combined entry fees
	assert.True(t, match.PrizePool.Equal(decimal.NewFromInt(18)), "prize pool %s", match.PrizePool)

	// both fees escrowed
	assert.True(t, store.balanceOf(aliceID).Equal(decimal.NewFromInt(90)))
	assert.True(t, store.balanceOf(bobID).Equal(decimal.NewFromInt(90)))

	// alice's queue entry consumed
	entry, err := store.FindWaitingEntry(ctx, aliceID)
	require.NoError(t, err)
	assert.Nil(t, entry)

	require.Len(t, events.events, 1)
	assert.Equal(t, models.EventMatchFound, events.events[0].Type)
	assert.Equal(t, second.MatchID, events.events[0].MatchID)
}

func TestJoinQueueRejectsNonPositiveFee(t *testing.T) {
	store := newMemStore()
	svc, _, _, _ := newMatchmakingFixture(store)

	aliceID := store.addUser("alice", 1000, 100)

	_, err := svc.JoinQueue(context.Background(), aliceID, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidEntryFee)

	_, err = svc.JoinQueue(context.Background(), aliceID, decimal.NewFromInt(-5))
	assert.ErrorIs(t, err, ErrInvalidEntryFee)
}

func TestJoinQueuePreconditions(t *testing.T) {
	ctx := context.Background()
	fee := decimal.NewFromInt(10)

	t.Run("unknown user", func(t *testing.T) {
		store := newMemStore()
		svc, _, _, reporter := newMatchmakingFixture(store)

		_, err := svc.JoinQueue(ctx, "00000000-0000-0000-0000-000000000000", fee)
		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.Contains(t, reporter.ops, "matchmaking.join_queue")
	})

	t.Run("insufficient balance", func(t *testing.T) {
		store := newMemStore()
		svc, _, _, _ := newMatchmakingFixture(store)

		poorID := store.addUser("poor", 1000, 5)
		_, err := svc.JoinQueue(ctx, poorID, fee)
		assert.ErrorIs(t, err, ErrInsufficientBalance)
	})

	t.Run("already queued", func(t *testing.T) {
		store := newMemStore()
		svc, _, _, _ := newMatchmakingFixture(store)

		aliceID := store.addUser("alice", 1000, 100)
		_, err := svc.JoinQueue(ctx, aliceID, fee)
		require.NoError(t, err)

		_, err = svc.JoinQueue(ctx, aliceID, fee)
		assert.ErrorIs(t, err, ErrAlreadyQueued)
	})

	t.Run("already in match", func(t *testing.T) {
		store := newMemStore()
		svc, _, _, _ := newMatchmakingFixture(store)

		aliceID := store.addUser("alice", 1000, 100)
		bobID := store.addUser("bob", 1000, 100)

		_, err := svc.JoinQueue(ctx, aliceID, fee)
		require.NoError(t, err)
		resp, err := svc.JoinQueue(ctx, bobID, fee)
		require.NoError(t, err)
		require.True(t, resp.Matched)

		_, err = svc.JoinQueue(ctx, aliceID, fee)
		assert.ErrorIs(t, err, ErrAlreadyInMatch)
		_, err = svc.JoinQueue(ctx, bobID, fee)
		assert.ErrorIs(t, err, ErrAlreadyInMatch)
	})
}

func TestJoinQueueSkipsIncompatibleOpponents(t *testing.T) {
	ctx := context.Background()
	fee := decimal.NewFromInt(10)

	t.Run("rating outside band", func(t *testing.T) {
		store := newMemStore()
		svc, _, _, _ := newMatchmakingFixture(store)

		aliceID := store.addUser("alice", 1000, 100)
		bobID := store.addUser("bob", 1201, 100)

		_, err := svc.JoinQueue(ctx, aliceID, fee)
		require.NoError(t, err)

		resp, err := svc.JoinQueue(ctx, bobID, fee)
		require.NoError(t, err)
		assert.False(t, resp.Matched)
	})

	t.Run("rating exactly on band edge pairs", func(t *testing.T) {
		store := newMemStore()
		svc, _, _, _ := newMatchmakingFixture(store)

		aliceID := store.addUser("alice", 1000, 100)
		bobID := store.addUser("bob", 1200, 100)

		_, err := svc.JoinQueue(ctx, aliceID, fee)
		require.NoError(t, err)

		resp, err := svc.JoinQueue(ctx, bobID, fee)
		require.NoError(t, err)
		assert.True(t, resp.Matched)
	})

	t.Run("different entry fee", func(t *testing.T) {
		store := newMemStore()
		svc, _, _, _ := newMatchmakingFixture(store)

		aliceID := store.addUser("alice", 1000, 100)
		bobID := store.addUser("bob", 1000, 100)

		_, err := svc.JoinQueue(ctx, aliceID, fee)
		require.NoError(t, err)

		resp, err := svc.JoinQueue(ctx, bobID, decimal.NewFromInt(20))
		require.NoError(t, err)
		assert.False(t, resp.Matched)
	})
}

func TestJoinQueuePrefersOldestWaitingEntry(t *testing.T) {
	ctx := context.Background()
	fee := decimal.NewFromInt(10)

	// alice and bob are 240 apart so they never pair with each other, but
	// both sit within carol's band
	setup := func(t *testing.T) (*memStore, *MatchmakingService, string, string, string) {
		t.Helper()
		store := newMemStore()
		svc, _, _, _ := newMatchmakingFixture(store)

		aliceID := store.addUser("alice", 880, 100)
		bobID := store.addUser("bob", 1120, 100)
		carolID := store.addUser("carol", 1000, 100)

		_, err := svc.JoinQueue(ctx, aliceID, fee)
		require.NoError(t, err)
		_, err = svc.JoinQueue(ctx, bobID, fee)
		require.NoError(t, err)

		return store, svc, aliceID, bobID, carolID
	}

	age := func(store *memStore, userID string, by time.Duration) {
		for _, e := range store.queue {
			if e.UserID == userID {
				e.CreatedAt = time.Now().UTC().Add(-by)
			}
		}
	}

	t.Run("first entry is older", func(t *testing.T) {
		store, svc, aliceID, bobID, carolID := setup(t)
		age(store, aliceID, 2*time.Minute)
		age(store, bobID, time.Minute)

		resp, err := svc.JoinQueue(ctx, carolID, fee)
		require.NoError(t, err)
		require.True(t, resp.Matched)

		match, err := store.GetMatch(ctx, resp.MatchID)
		require.NoError(t, err)
		assert.Equal(t, aliceID, match.Player1ID)

		entry, err := store.FindWaitingEntry(ctx, bobID)
		require.NoError(t, err)
		assert.NotNil(t, entry)
	})

	t.Run("second entry is older", func(t *testing.T) {
		store, svc, aliceID, bobID, carolID := setup(t)
		age(store, aliceID, time.Minute)
		age(store, bobID, 2*time.Minute)

		resp, err := svc.JoinQueue(ctx, carolID, fee)
		require.NoError(t, err)
		require.True(t, resp.Matched)

		match, err := store.GetMatch(ctx, resp.MatchID)
		require.NoError(t, err)
		assert.Equal(t, bobID, match.Player1ID)

		entry, err := store.FindWaitingEntry(ctx, aliceID)
		require.NoError(t, err)
		assert.NotNil(t, entry)
	})
}

func TestJoinQueueEmptyCatalogFailsBeforeAnyDebit(t *testing.T) {
	store := newMemStore()
	events := &fakePublisher{}
	reporter := &fakeReporter{}
	svc := NewMatchmakingService(store, &stubPicker{err: problems.ErrEmptyCatalog}, reporter, events, newFakeRatings(), 200)
	ctx := context.Background()
	fee := decimal.NewFromInt(10)

	aliceID := store.addUser("alice", 1000, 100)
	bobID := store.addUser("bob", 1000, 100)

	// queueing alone never touches the catalog
	first, err := svc.JoinQueue(ctx, aliceID, fee)
	require.NoError(t, err)
	require.False(t, first.Matched)

	_, err = svc.JoinQueue(ctx, bobID, fee)
	assert.ErrorIs(t, err, ErrProblemCatalogEmpty)
	assert.Contains(t, reporter.ops, "matchmaking.join_queue")

	// the pick precedes escrow, so no money moved
	assert.True(t, store.balanceOf(aliceID).Equal(decimal.NewFromInt(100)))
	assert.True(t, store.balanceOf(bobID).Equal(decimal.NewFromInt(100)))

	// alice is still pairable
	entry, err := store.FindWaitingEntry(ctx, aliceID)
	require.NoError(t, err)
	assert.NotNil(t, entry)

	assert.Empty(t, events.events)
}

func TestJoinQueueRetiresBrokeOpponent(t *testing.T) {
	store := newMemStore()
	svc, events, _, _ := newMatchmakingFixture(store)
	ctx := context.Background()
	fee := decimal.NewFromInt(10)

	aliceID := store.addUser("alice", 1000, 100)
	bobID := store.addUser("bob", 1000, 100)

	first, err := svc.JoinQueue(ctx, aliceID, fee)
	require.NoError(t, err)
	require.False(t, first.Matched)

	// alice's balance drops below the fee while she waits
	store.users[aliceID].WalletBalance = decimal.NewFromInt(3)

	resp, err := svc.JoinQueue(ctx, bobID, fee)
	require.NoError(t, err)
	assert.False(t, resp.Matched)
	assert.NotEmpty(t, resp.QueueID)

	// alice's entry was retired, bob is now the waiting player
	entry, err := store.FindWaitingEntry(ctx, aliceID)
	require.NoError(t, err)
	assert.Nil(t, entry)

	entry, err = store.FindWaitingEntry(ctx, bobID)
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.Empty(t, events.events)
}

func TestLeaveQueueIsIdempotent(t *testing.T) {
	store := newMemStore()
	svc, _, _, _ := newMatchmakingFixture(store)
	ctx := context.Background()

	aliceID := store.addUser("alice", 1000, 100)

	// leaving without ever joining is a no-op
	require.NoError(t, svc.LeaveQueue(ctx, aliceID))

	_, err := svc.JoinQueue(ctx, aliceID, decimal.NewFromInt(10))
	require.NoError(t, err)

	require.NoError(t, svc.LeaveQueue(ctx, aliceID))

	entry, err := store.FindWaitingEntry(ctx, aliceID)
	require.NoError(t, err)
	assert.Nil(t, entry)

	// second leave after cancelling is still fine
	require.NoError(t, svc.LeaveQueue(ctx, aliceID))
}

func TestExpireStaleQueueEntries(t *testing.T) {
	store := newMemStore()
	svc, _, _, _ := newMatchmakingFixture(store)
	ctx := context.Background()

	staleID := store.addUser("stale", 1000, 100)
	freshID := store.addUser("fresh", 1000, 100)

	_, err := svc.JoinQueue(ctx, staleID, decimal.NewFromInt(10))
	require.NoError(t, err)
	_, err = svc.JoinQueue(ctx, freshID, decimal.NewFromInt(50))
	require.NoError(t, err)

	// age the stale entry past the TTL
	for _, e := range store.queue {
		if e.UserID == staleID {
			e.CreatedAt = time.Now().UTC().Add(-time.Hour)
		}
	}

	n, err := svc.ExpireStaleQueueEntries(ctx, 15*time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	entry, err := store.FindWaitingEntry(ctx, staleID)
	require.NoError(t, err)
	assert.Nil(t, entry)

	entry, err = store.FindWaitingEntry(ctx, freshID)
	require.NoError(t, err)
	assert.NotNil(t, entry)
}

func TestJoinQueueEntryFeeLedger(t *testing.T) {
	store := newMemStore()
	svc, _, _, _ := newMatchmakingFixture(store)
	ctx := context.Background()
	fee := decimal.NewFromInt(25)

	aliceID := store.addUser("alice", 1000, 100)
	bobID := store.addUser("bob", 1000, 100)

	_, err := svc.JoinQueue(ctx, aliceID, fee)
	require.NoError(t, err)
	resp, err := svc.JoinQueue(ctx, bobID, fee)
	require.NoError(t, err)
	require.True(t, resp.Matched)

	txns, err := store.ListMatchTransactions(ctx, resp.MatchID)
	require.NoError(t, err)
	require.Len(t, txns, 2)

	for _, txn := range txns {
		assert.Equal(t, models.TransactionEntryFee, txn.Type)
		assert.True(t, txn.Amount.Equal(fee.Neg()), "amount %s", txn.Amount)
		assert.Equal(t, models.TransactionCompleted, txn.Status)
	}
}
