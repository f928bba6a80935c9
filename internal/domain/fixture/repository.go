package fixture

import "context"

// Repository exposes fixture operations against a document-style store:
// insert assigns and returns the internal identifier, patch applies a
// partial update to one record, the list operations are equality-filter
// queries.
type Repository interface {
	ListBySeason(ctx context.Context, seasonID string) ([]Fixture, error)
	ListBySeasonWeek(ctx context.Context, seasonID string, week int) ([]Fixture, error)
	Insert(ctx context.Context, item Fixture) (string, error)
	Patch(ctx context.Context, id string, change Fixture) error
}
