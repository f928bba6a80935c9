package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/openfooty/matchday/internal/domain/fixture"
	"github.com/openfooty/matchday/internal/platform/id"
)

// FixtureRepository is the in-memory fixture store. Records keep
// insertion order so list results are deterministic.
type FixtureRepository struct {
	mu    sync.RWMutex
	ids   id.Generator
	items map[string]fixture.Fixture
	order []string
}

func NewFixtureRepository(ids id.Generator) *FixtureRepository {
	if ids == nil {
		ids = id.NewRandomGenerator()
	}
	return &FixtureRepository{
		ids:   ids,
		items: make(map[string]fixture.Fixture),
	}
}

func (r *FixtureRepository) ListBySeason(_ context.Context, seasonID string) ([]fixture.Fixture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]fixture.Fixture, 0, len(r.order))
	for _, itemID := range r.order {
		item := r.items[itemID]
		if item.SeasonID == seasonID {
			out = append(out, cloneFixture(item))
		}
	}
	return out, nil
}

func (r *FixtureRepository) ListBySeasonWeek(_ context.Context, seasonID string, week int) ([]fixture.Fixture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]fixture.Fixture, 0, len(r.order))
	for _, itemID := range r.order {
		item := r.items[itemID]
		if item.SeasonID == seasonID && item.Week == week {
			out = append(out, cloneFixture(item))
		}
	}
	return out, nil
}

func (r *FixtureRepository) Insert(_ context.Context, item fixture.Fixture) (string, error) {
	newID, err := r.ids.NewID()
	if err != nil {
		return "", fmt.Errorf("generate fixture id: %w", err)
	}
	item.ID = newID
	item.Attrs = cloneAttrs(item.Attrs)

	r.mu.Lock()
	r.items[newID] = item
	r.order = append(r.order, newID)
	r.mu.Unlock()

	return newID, nil
}

// Patch overwrites the typed fields from change and merges its
// attribute bag over the stored one.
func (r *FixtureRepository) Patch(_ context.Context, fixtureID string, change fixture.Fixture) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[fixtureID]
	if !ok {
		return fmt.Errorf("fixture %s does not exist", fixtureID)
	}

	existing.SeasonID = change.SeasonID
	existing.GameID = change.GameID
	existing.Week = change.Week
	existing.Status = change.Status
	existing.Date = change.Date
	existing.HomeTeam = change.HomeTeam
	existing.AwayTeam = change.AwayTeam

	if existing.Attrs == nil {
		existing.Attrs = make(map[string]any, len(change.Attrs))
	} else {
		existing.Attrs = cloneAttrs(existing.Attrs)
	}
	for key, value := range change.Attrs {
		existing.Attrs[key] = value
	}

	r.items[fixtureID] = existing
	return nil
}

func cloneFixture(item fixture.Fixture) fixture.Fixture {
	item.Attrs = cloneAttrs(item.Attrs)
	return item
}

func cloneAttrs(attrs map[string]any) map[string]any {
	if attrs == nil {
		return nil
	}
	out := make(map[string]any, len(attrs))
	for key, value := range attrs {
		out[key] = value
	}
	return out
}
