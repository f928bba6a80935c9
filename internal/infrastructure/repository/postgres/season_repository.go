package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/openfooty/matchday/internal/domain/season"
	"github.com/openfooty/matchday/internal/platform/id"
	qb "github.com/openfooty/matchday/internal/platform/querybuilder"
)

// SeasonRepository stores seasons in Postgres. The schema carries a
// partial unique index on (competition) WHERE current, so a racing
// duplicate insert of a current season fails at the database.
type SeasonRepository struct {
	db  *sqlx.DB
	ids id.Generator
}

func NewSeasonRepository(db *sqlx.DB, ids id.Generator) *SeasonRepository {
	if ids == nil {
		ids = id.NewRandomGenerator()
	}
	return &SeasonRepository{db: db, ids: ids}
}

func (r *SeasonRepository) GetCurrent(ctx context.Context, competition string) (season.Season, bool, error) {
	query, args, err := qb.Select(seasonColumns...).From("seasons").
		Where(qb.Eq("competition", competition), qb.Expr("current")).
		Limit(1).
		ToSQL()
	if err != nil {
		return season.Season{}, false, fmt.Errorf("build select current season query: %w", err)
	}

	var row seasonTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return season.Season{}, false, nil
		}
		return season.Season{}, false, fmt.Errorf("select current season: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *SeasonRepository) GetByID(ctx context.Context, seasonID string) (season.Season, bool, error) {
	query, args, err := qb.Select(seasonColumns...).From("seasons").
		Where(qb.Eq("id", seasonID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return season.Season{}, false, fmt.Errorf("build select season query: %w", err)
	}

	var row seasonTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return season.Season{}, false, nil
		}
		return season.Season{}, false, fmt.Errorf("select season: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *SeasonRepository) Insert(ctx context.Context, item season.Season) (string, error) {
	newID, err := r.ids.NewID()
	if err != nil {
		return "", fmt.Errorf("generate season id: %w", err)
	}

	query, args, err := qb.InsertInto("seasons").
		Set("id", newID).
		Set("competition", item.Competition).
		Set("season_ref_id", item.SeasonRefID).
		Set("label", item.Label).
		Set("start_date", item.StartDate).
		Set("end_date", item.EndDate).
		Set("current_week", item.CurrentWeek).
		Set("current", item.Current).
		ToSQL()
	if err != nil {
		return "", fmt.Errorf("build insert season query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("insert season: %w", err)
	}

	return newID, nil
}
