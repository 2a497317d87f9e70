package repository

import (
	"context"
	"errors"
	"time"

	"codeduel/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrNotFound is returned by conditional updates that matched no row,
// meaning the record changed state under the caller.
var ErrNotFound = errors.New("repository: record not found")

// Datastore is the persistence contract the services operate against.
// Lookup methods return (nil, nil) when the record is absent; the service
// layer decides whether absence is an error. InTx runs fn against a
// transaction-scoped Datastore; every read inside feeds a potential write,
// so the *ForUpdate variants take row locks that hold until commit.
type Datastore interface {
	InTx(ctx context.Context, fn func(Datastore) error) error

	// users
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserForUpdate(ctx context.Context, id string) (*models.User, error)
	GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error

	// matchmaking queue
	CreateQueueEntry(ctx context.Context, entry *models.QueueEntry) error
	FindWaitingEntry(ctx context.Context, userID string) (*models.QueueEntry, error)
	FindCompatibleEntry(ctx context.Context, excludeUserID string, entryFee decimal.Decimal, ratingLow, ratingHigh int) (*models.QueueEntry, error)
	UpdateQueueEntryStatus(ctx context.Context, id string, from, to models.QueueStatus) error
	ExpireWaitingBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// matches
	CreateMatch(ctx context.Context, match *models.Match) error
	GetMatch(ctx context.Context, id string) (*models.Match, error)
	GetMatchForUpdate(ctx context.Context, id string) (*models.Match, error)
	SaveMatch(ctx context.Context, match *models.Match) error
	HasActiveMatch(ctx context.Context, userID string) (bool, error)
	ListActiveMatchesBefore(ctx context.Context, cutoff time.Time) ([]models.Match, error)

	// submissions
	CreateSubmission(ctx context.Context, sub *models.Submission) error
	GetSubmission(ctx context.Context, matchID, userID string) (*models.Submission, error)

	// transaction ledger
	CreateTransaction(ctx context.Context, txn *models.Transaction) error
	ListUserTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error)
	ListMatchTransactions(ctx context.Context, matchID string) ([]models.Transaction, error)

	// problem catalog
	CreateProblem(ctx context.Context, problem *models.Problem) error
	ListProblems(ctx context.Context) ([]models.Problem, error)
}

// Store is the PostgreSQL Datastore backed by GORM
type Store struct {
	db *gorm.DB
}

// NewStore creates a new Postgres-backed store
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// InTx runs fn inside a database transaction. The Datastore handed to fn is
// bound to the transaction; row locks taken through it are held until the
// transaction commits or rolls back.
func (s *Store) InTx(ctx context.Context, fn func(Datastore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// AutoMigrate runs database migrations
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(
		&models.User{},
		&models.QueueEntry{},
		&models.Match{},
		&models.Submission{},
		&models.Transaction{},
		&models.Problem{},
	)
}

// Ping checks if the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
