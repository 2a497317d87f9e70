package repository

import (
	"context"

	"codeduel/internal/models"
)

// CreateTransaction appends a ledger entry. Always called in the same
// database transaction as the wallet mutation it documents.
func (s *Store) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	return s.db.WithContext(ctx).Create(txn).Error
}

// ListUserTransactions returns a user's most recent ledger entries
func (s *Store) ListUserTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&txns).Error
	return txns, err
}

// ListMatchTransactions returns every ledger entry tied to a match, oldest
// first. This is the audit trail for funds conservation.
func (s *Store) ListMatchTransactions(ctx context.Context, matchID string) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := s.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("created_at ASC").
		Find(&txns).Error
	return txns, err
}
