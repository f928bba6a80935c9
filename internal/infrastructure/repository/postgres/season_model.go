package postgres

import (
	"time"

	"github.com/openfooty/matchday/internal/domain/season"
)

type seasonTableModel struct {
	ID          string    `db:"id"`
	Competition string    `db:"competition"`
	SeasonRefID int64     `db:"season_ref_id"`
	Label       string    `db:"label"`
	StartDate   time.Time `db:"start_date"`
	EndDate     time.Time `db:"end_date"`
	CurrentWeek int       `db:"current_week"`
	Current     bool      `db:"current"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (m seasonTableModel) toDomain() season.Season {
	return season.Season{
		ID:          m.ID,
		Competition: m.Competition,
		SeasonRefID: m.SeasonRefID,
		Label:       m.Label,
		StartDate:   m.StartDate,
		EndDate:     m.EndDate,
		CurrentWeek: m.CurrentWeek,
		Current:     m.Current,
	}
}

var seasonColumns = []string{
	"id",
	"competition",
	"season_ref_id",
	"label",
	"start_date",
	"end_date",
	"current_week",
	"current",
	"created_at",
	"updated_at",
}
