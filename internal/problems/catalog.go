// Package problems exposes the problem catalog collaborator. The engine
// only ever asks for a uniformly random problem per match; authoring and
// grading live elsewhere.
package problems

import (
	"context"
	"errors"
	"math/rand"

	"codeduel/internal/models"
)

// ErrEmptyCatalog means no problems have been seeded; matches cannot be created
var ErrEmptyCatalog = errors.New("problems: catalog is empty")

// Lister is the slice of the datastore the catalog needs
type Lister interface {
	ListProblems(ctx context.Context) ([]models.Problem, error)
}

// Catalog serves random problems out of the persisted catalog
type Catalog struct {
	store Lister
}

// NewCatalog creates a catalog over the given store
func NewCatalog(store Lister) *Catalog {
	return &Catalog{store: store}
}

// RandomPick returns a uniformly random problem from the full catalog
func (c *Catalog) RandomPick(ctx context.Context) (*models.Problem, error) {
	list, err := c.store.ListProblems(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrEmptyCatalog
	}
	p := list[rand.Intn(len(list))]
	return &p, nil
}

// ListAll returns the full catalog
func (c *Catalog) ListAll(ctx context.Context) ([]models.Problem, error) {
	return c.store.ListProblems(ctx)
}
