package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/openfooty/matchday/internal/domain/season"
	"github.com/openfooty/matchday/internal/platform/id"
)

// SeasonRepository is the in-memory season store used by tests and
// local development. Unlike the Postgres store it carries no unique
// constraint on the current flag; callers rely on the
// read-before-write guard alone.
type SeasonRepository struct {
	mu    sync.RWMutex
	ids   id.Generator
	items map[string]season.Season
}

func NewSeasonRepository(ids id.Generator) *SeasonRepository {
	if ids == nil {
		ids = id.NewRandomGenerator()
	}
	return &SeasonRepository{
		ids:   ids,
		items: make(map[string]season.Season),
	}
}

func (r *SeasonRepository) GetCurrent(_ context.Context, competition string) (season.Season, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.Competition == competition && item.Current {
			return item, true, nil
		}
	}
	return season.Season{}, false, nil
}

func (r *SeasonRepository) GetByID(_ context.Context, seasonID string) (season.Season, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[seasonID]
	return item, ok, nil
}

func (r *SeasonRepository) Insert(_ context.Context, item season.Season) (string, error) {
	newID, err := r.ids.NewID()
	if err != nil {
		return "", fmt.Errorf("generate season id: %w", err)
	}
	item.ID = newID

	r.mu.Lock()
	r.items[newID] = item
	r.mu.Unlock()

	return newID, nil
}
