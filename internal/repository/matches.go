package repository

import (
	"context"
	"errors"
	"time"

	"codeduel/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateMatch inserts a new match record
func (s *Store) CreateMatch(ctx context.Context, match *models.Match) error {
	return s.db.WithContext(ctx).Create(match).Error
}

// GetMatch retrieves a match by ID, nil if absent
func (s *Store) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	var match models.Match
	err := s.db.WithContext(ctx).First(&match, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// GetMatchForUpdate retrieves a match by ID with a row lock. Racing
// submissions on one match serialize on this lock, which is what keeps
// arbitration single-writer per match.
func (s *Store) GetMatchForUpdate(ctx context.Context, id string) (*models.Match, error) {
	var match models.Match
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&match, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// SaveMatch persists all fields of an already-loaded match record
func (s *Store) SaveMatch(ctx context.Context, match *models.Match) error {
	return s.db.WithContext(ctx).Save(match).Error
}

// HasActiveMatch reports whether the user participates in any active match
func (s *Store) HasActiveMatch(ctx context.Context, userID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Match{}).
		Where("status = ? AND (player1_id = ? OR player2_id = ?)",
			models.MatchStatusActive, userID, userID).
		Count(&count).Error
	return count > 0, err
}

// ListActiveMatchesBefore returns matches still active that started before
// cutoff; the sweeper force-draws them.
func (s *Store) ListActiveMatchesBefore(ctx context.Context, cutoff time.Time) ([]models.Match, error) {
	var matches []models.Match
	err := s.db.WithContext(ctx).
		Where("status = ? AND started_at < ?", models.MatchStatusActive, cutoff).
		Order("started_at ASC").
		Find(&matches).Error
	return matches, err
}

// CreateSubmission appends a submission record. The unique (match, user)
// index makes a double insert fail even if the service check was bypassed.
func (s *Store) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	return s.db.WithContext(ctx).Create(sub).Error
}

// GetSubmission returns a participant's submission for a match, nil if they
// have not submitted
func (s *Store) GetSubmission(ctx context.Context, matchID, userID string) (*models.Submission, error) {
	var sub models.Submission
	err := s.db.WithContext(ctx).
		Where("match_id = ? AND user_id = ?", matchID, userID).
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
