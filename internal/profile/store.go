// Package profile persists player profiles. Every backend stores the same
// encoded blob so a profile can move between backends unchanged.
package profile

import (
	"context"
	"errors"

	"github.com/gravitas-games/stashkeeper/pkg/models"
)

// ErrNotFound is returned by Get for unknown profile ids.
var ErrNotFound = errors.New("profile: not found")

// Store loads and saves whole profiles. Implementations hand out copies;
// changes are only visible after Save.
type Store interface {
	Get(ctx context.Context, id string) (*models.Profile, error)
	Save(ctx context.Context, p *models.Profile) error
	// List returns every stored profile id in ascending order.
	List(ctx context.Context) ([]string, error)
	Close() error
}
