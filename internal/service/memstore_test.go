package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"codeduel/internal/models"
	"codeduel/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory Datastore for service tests. InTx serializes
// through a mutex the way the real store serializes through row locks; reads
// hand out copies so only SaveUser/SaveMatch make changes visible.
type memStore struct {
	mu       sync.Mutex
	users    map[string]*models.User
	queue    map[string]*models.QueueEntry
	matches  map[string]*models.Match
	subs     map[string]*models.Submission
	txns     []*models.Transaction
	problems []models.Problem
}

func newMemStore() *memStore {
	return &memStore{
		users:   make(map[string]*models.User),
		queue:   make(map[string]*models.QueueEntry),
		matches: make(map[string]*models.Match),
		subs:    make(map[string]*models.Submission),
	}
}

func subKey(matchID, userID string) string {
	return matchID + "/" + userID
}

func (m *memStore) InTx(ctx context.Context, fn func(repository.Datastore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m)
}

func (m *memStore) CreateUser(ctx context.Context, user *models.User) error {
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetUserForUpdate(ctx context.Context, id string) (*models.User, error) {
	return m.GetUser(ctx, id)
}

func (m *memStore) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	for _, u := range m.users {
		if u.ExternalID == externalID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) SaveUser(ctx context.Context, user *models.User) error {
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memStore) CreateQueueEntry(ctx context.Context, entry *models.QueueEntry) error {
	cp := *entry
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	m.queue[entry.ID] = &cp
	return nil
}

func (m *memStore) FindWaitingEntry(ctx context.Context, userID string) (*models.QueueEntry, error) {
	for _, e := range m.queue {
		if e.UserID == userID && e.Status == models.QueueStatusWaiting {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) FindCompatibleEntry(ctx context.Context, excludeUserID string, entryFee decimal.Decimal, ratingLow, ratingHigh int) (*models.QueueEntry, error) {
	var candidates []*models.QueueEntry
	for _, e := range m.queue {
		if e.Status != models.QueueStatusWaiting || e.UserID == excludeUserID {
			continue
		}
		if !e.EntryFee.Equal(entryFee) {
			continue
		}
		if e.Rating < ratingLow || e.Rating > ratingHigh {
			continue
		}
		candidates = append(candidates, e)
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].CreatedAt.Equal(candidates[j].CreatedAt) {
			return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
		}
		return candidates[i].ID < candidates[j].ID
	})
	cp := *candidates[0]
	return &cp, nil
}

func (m *memStore) UpdateQueueEntryStatus(ctx context.Context, id string, from, to models.QueueStatus) error {
	e, ok := m.queue[id]
	if !ok || e.Status != from {
		return repository.ErrNotFound
	}
	e.Status = to
	return nil
}

func (m *memStore) ExpireWaitingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for _, e := range m.queue {
		if e.Status == models.QueueStatusWaiting && e.CreatedAt.Before(cutoff) {
			e.Status = models.QueueStatusExpired
			n++
		}
	}
	return n, nil
}

func (m *memStore) CreateMatch(ctx context.Context, match *models.Match) error {
	cp := *match
	m.matches[match.ID] = &cp
	return nil
}

func (m *memStore) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	mt, ok := m.matches[id]
	if !ok {
		return nil, nil
	}
	cp := *mt
	return &cp, nil
}

func (m *memStore) GetMatchForUpdate(ctx context.Context, id string) (*models.Match, error) {
	return m.GetMatch(ctx, id)
}

func (m *memStore) SaveMatch(ctx context.Context, match *models.Match) error {
	cp := *match
	m.matches[match.ID] = &cp
	return nil
}

func (m *memStore) HasActiveMatch(ctx context.Context, userID string) (bool, error) {
	for _, mt := range m.matches {
		if mt.Status == models.MatchStatusActive && mt.IsParticipant(userID) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ListActiveMatchesBefore(ctx context.Context, cutoff time.Time) ([]models.Match, error) {
	var out []models.Match
	for _, mt := range m.matches {
		if mt.Status == models.MatchStatusActive && mt.StartedAt.Before(cutoff) {
			out = append(out, *mt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	key := subKey(sub.MatchID, sub.UserID)
	if _, exists := m.subs[key]; exists {
		return errors.New("duplicate submission")
	}
	cp := *sub
	m.subs[key] = &cp
	return nil
}

func (m *memStore) GetSubmission(ctx context.Context, matchID, userID string) (*models.Submission, error) {
	s, ok := m.subs[subKey(matchID, userID)]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	cp := *txn
	m.txns = append(m.txns, &cp)
	return nil
}

func (m *memStore) ListUserTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	var out []models.Transaction
	for i := len(m.txns) - 1; i >= 0 && len(out) < limit; i-- {
		if m.txns[i].UserID == userID {
			out = append(out, *m.txns[i])
		}
	}
	return out, nil
}

func (m *memStore) ListMatchTransactions(ctx context.Context, matchID string) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, t := range m.txns {
		if t.MatchID != nil && *t.MatchID == matchID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memStore) CreateProblem(ctx context.Context, problem *models.Problem) error {
	m.problems = append(m.problems, *problem)
	return nil
}

func (m *memStore) ListProblems(ctx context.Context) ([]models.Problem, error) {
	return append([]models.Problem(nil), m.problems...), nil
}

// addUser seeds a user and returns its ID
func (m *memStore) addUser(username string, userRating int, balance int64) string {
	id := uuid.NewString()
	m.users[id] = &models.User{
		ID:            id,
		ExternalID:    "test:" + username,
		Email:         username + "@test.dev",
		Username:      username,
		Rating:        userRating,
		WalletBalance: decimal.NewFromInt(balance),
	}
	return id
}

// balanceOf returns the stored wallet balance
func (m *memStore) balanceOf(userID string) decimal.Decimal {
	return m.users[userID].WalletBalance
}

// fakeReporter records reported operation names
type fakeReporter struct {
	mu  sync.Mutex
	ops []string
}

func (f *fakeReporter) ReportError(op string, err error, fields map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, op)
}

// fakePublisher records published match events
type fakePublisher struct {
	mu     sync.Mutex
	events []models.MatchEvent
}

func (f *fakePublisher) PublishMatch(evt models.MatchEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
}

// fakeRatings records rating syncs
type fakeRatings struct {
	mu    sync.Mutex
	syncs map[string]int
}

func newFakeRatings() *fakeRatings {
	return &fakeRatings{syncs: make(map[string]int)}
}

func (f *fakeRatings) SyncRating(username string, ratingValue int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncs[username] = ratingValue
}

// stubPicker always returns the same problem
type stubPicker struct {
	problem *models.Problem
	err     error
}

func (s *stubPicker) RandomPick(ctx context.Context) (*models.Problem, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.problem, nil
}

func testProblem() *models.Problem {
	return &models.Problem{
		ID:         uuid.NewString(),
		Title:      "Two Sum",
		Slug:       "two-sum",
		Difficulty: "easy",
	}
}
