package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/openfooty/matchday/internal/domain/fixture"
	"github.com/openfooty/matchday/internal/platform/id"
	qb "github.com/openfooty/matchday/internal/platform/querybuilder"
)

type FixtureRepository struct {
	db  *sqlx.DB
	ids id.Generator
}

func NewFixtureRepository(db *sqlx.DB, ids id.Generator) *FixtureRepository {
	if ids == nil {
		ids = id.NewRandomGenerator()
	}
	return &FixtureRepository{db: db, ids: ids}
}

func (r *FixtureRepository) ListBySeason(ctx context.Context, seasonID string) ([]fixture.Fixture, error) {
	query, args, err := qb.Select(fixtureColumns...).From("fixtures").
		Where(qb.Eq("season_id", seasonID)).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select fixtures query: %w", err)
	}

	return r.selectFixtures(ctx, query, args)
}

func (r *FixtureRepository) ListBySeasonWeek(ctx context.Context, seasonID string, week int) ([]fixture.Fixture, error) {
	query, args, err := qb.Select(fixtureColumns...).From("fixtures").
		Where(qb.Eq("season_id", seasonID), qb.Eq("week", week)).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select week fixtures query: %w", err)
	}

	return r.selectFixtures(ctx, query, args)
}

func (r *FixtureRepository) selectFixtures(ctx context.Context, query string, args []any) ([]fixture.Fixture, error) {
	var rows []fixtureTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select fixtures: %w", err)
	}

	out := make([]fixture.Fixture, 0, len(rows))
	for _, row := range rows {
		item, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("fixture %s: %w", row.ID, err)
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *FixtureRepository) Insert(ctx context.Context, item fixture.Fixture) (string, error) {
	newID, err := r.ids.NewID()
	if err != nil {
		return "", fmt.Errorf("generate fixture id: %w", err)
	}

	attrs, err := encodeAttrs(item.Attrs)
	if err != nil {
		return "", err
	}

	query, args, err := qb.InsertInto("fixtures").
		Set("id", newID).
		Set("season_id", item.SeasonID).
		Set("game_id", item.GameID).
		Set("week", item.Week).
		Set("status", item.Status).
		Set("date", item.Date).
		Set("home_team", item.HomeTeam).
		Set("away_team", item.AwayTeam).
		Set("attrs", attrs).
		ToSQL()
	if err != nil {
		return "", fmt.Errorf("build insert fixture query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("insert fixture: %w", err)
	}

	return newID, nil
}

// Patch overwrites the typed columns and merges the attribute bag
// into the stored JSONB document.
func (r *FixtureRepository) Patch(ctx context.Context, fixtureID string, change fixture.Fixture) error {
	attrs, err := encodeAttrs(change.Attrs)
	if err != nil {
		return err
	}

	query, args, err := qb.Update("fixtures").
		Set("season_id", change.SeasonID).
		Set("game_id", change.GameID).
		Set("week", change.Week).
		Set("status", change.Status).
		Set("date", change.Date).
		Set("home_team", change.HomeTeam).
		Set("away_team", change.AwayTeam).
		SetExpr("attrs", "attrs || ?::jsonb", attrs).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", fixtureID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update fixture query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update fixture: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update fixture rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("fixture %s does not exist", fixtureID)
	}

	return nil
}
