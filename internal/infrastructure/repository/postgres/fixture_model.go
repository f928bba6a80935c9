package postgres

import (
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/openfooty/matchday/internal/domain/fixture"
)

type fixtureTableModel struct {
	ID        string    `db:"id"`
	SeasonID  string    `db:"season_id"`
	GameID    int64     `db:"game_id"`
	Week      int       `db:"week"`
	Status    string    `db:"status"`
	Date      time.Time `db:"date"`
	HomeTeam  string    `db:"home_team"`
	AwayTeam  string    `db:"away_team"`
	Attrs     []byte    `db:"attrs"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (m fixtureTableModel) toDomain() (fixture.Fixture, error) {
	var attrs map[string]any
	if len(m.Attrs) > 0 {
		if err := sonic.Unmarshal(m.Attrs, &attrs); err != nil {
			return fixture.Fixture{}, fmt.Errorf("decode fixture attrs: %w", err)
		}
	}

	return fixture.Fixture{
		ID:       m.ID,
		SeasonID: m.SeasonID,
		GameID:   m.GameID,
		Week:     m.Week,
		Status:   m.Status,
		Date:     m.Date,
		HomeTeam: m.HomeTeam,
		AwayTeam: m.AwayTeam,
		Attrs:    attrs,
	}, nil
}

func encodeAttrs(attrs map[string]any) ([]byte, error) {
	if attrs == nil {
		attrs = map[string]any{}
	}
	encoded, err := sonic.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("encode fixture attrs: %w", err)
	}
	return encoded, nil
}

var fixtureColumns = []string{
	"id",
	"season_id",
	"game_id",
	"week",
	"status",
	"date",
	"home_team",
	"away_team",
	"attrs",
	"created_at",
	"updated_at",
}
