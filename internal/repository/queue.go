package repository

import (
	"context"
	"errors"
	"time"

	"codeduel/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateQueueEntry inserts a waiting queue entry
func (s *Store) CreateQueueEntry(ctx context.Context, entry *models.QueueEntry) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// FindWaitingEntry returns the user's waiting queue entry, nil if they have
// none. Locks the row when called inside InTx so a concurrent cancel or
// match cannot slip between check and transition.
func (s *Store) FindWaitingEntry(ctx context.Context, userID string) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND status = ?", userID, models.QueueStatusWaiting).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindCompatibleEntry returns the oldest waiting entry with the same entry
// fee and a rating inside [ratingLow, ratingHigh], excluding the requester.
// The row is locked so two concurrent joins cannot both claim it. Returns
// nil when nobody compatible is waiting.
func (s *Store) FindCompatibleEntry(ctx context.Context, excludeUserID string, entryFee decimal.Decimal, ratingLow, ratingHigh int) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("status = ? AND user_id <> ? AND entry_fee = ? AND rating BETWEEN ? AND ?",
			models.QueueStatusWaiting, excludeUserID, entryFee, ratingLow, ratingHigh).
		Order("created_at ASC").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateQueueEntryStatus transitions an entry from one status to another.
// The WHERE on the current status makes the transition a compare-and-swap:
// ErrNotFound means the entry already left that state.
func (s *Store) UpdateQueueEntryStatus(ctx context.Context, id string, from, to models.QueueStatus) error {
	res := s.db.WithContext(ctx).
		Model(&models.QueueEntry{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ExpireWaitingBefore transitions every waiting entry created before cutoff
// to expired and returns how many rows moved.
func (s *Store) ExpireWaitingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&models.QueueEntry{}).
		Where("status = ? AND created_at < ?", models.QueueStatusWaiting, cutoff).
		Update("status", models.QueueStatusExpired)
	return res.RowsAffected, res.Error
}
