package repository

import (
	"context"

	"codeduel/internal/models"
)

// CreateProblem inserts a catalog entry
func (s *Store) CreateProblem(ctx context.Context, problem *models.Problem) error {
	return s.db.WithContext(ctx).Create(problem).Error
}

// ListProblems returns the full problem catalog
func (s *Store) ListProblems(ctx context.Context) ([]models.Problem, error) {
	var problems []models.Problem
	err := s.db.WithContext(ctx).Order("created_at ASC").Find(&problems).Error
	return problems, err
}
