package sportsdata

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/openfooty/matchday/internal/usecase"
)

type competitionDetailsEnvelope struct {
	CurrentSeason currentSeasonPayload `json:"CurrentSeason"`
}

type currentSeasonPayload struct {
	CompetitionName string         `json:"CompetitionName"`
	Name            string         `json:"Name"`
	Rounds          []roundPayload `json:"Rounds"`
}

type roundPayload struct {
	Type        string            `json:"Type"`
	SeasonID    int64             `json:"SeasonId"`
	Season      int               `json:"Season"`
	CurrentWeek int               `json:"CurrentWeek"`
	StartDate   string            `json:"StartDate"`
	EndDate     string            `json:"EndDate"`
	Games       []json.RawMessage `json:"Games"`
}

// gameCore covers the typed columns the reconciler relies on. Every
// other provider field rides along in the raw record map.
type gameCore struct {
	GameID      int64  `json:"GameId"`
	Week        int    `json:"Week"`
	Status      string `json:"Status"`
	DateTime    string `json:"DateTime"`
	Day         string `json:"Day"`
	HomeTeamKey string `json:"HomeTeamKey"`
	AwayTeamKey string `json:"AwayTeamKey"`
}

func decodeGame(raw json.RawMessage) (usecase.ProviderGame, error) {
	var core gameCore
	if err := sonic.Unmarshal(raw, &core); err != nil {
		return usecase.ProviderGame{}, fmt.Errorf("decode game core: %w", err)
	}

	var record map[string]any
	if err := sonic.Unmarshal(raw, &record); err != nil {
		return usecase.ProviderGame{}, fmt.Errorf("decode game record: %w", err)
	}

	return usecase.ProviderGame{
		GameID:      core.GameID,
		Week:        core.Week,
		Status:      strings.TrimSpace(core.Status),
		DateTime:    parseProviderDateTime(core.DateTime),
		Day:         parseProviderDateTime(core.Day),
		HomeTeamKey: strings.TrimSpace(core.HomeTeamKey),
		AwayTeamKey: strings.TrimSpace(core.AwayTeamKey),
		Record:      record,
	}, nil
}

func mapRound(item roundPayload) (usecase.ProviderRound, error) {
	games := make([]usecase.ProviderGame, 0, len(item.Games))
	for i, raw := range item.Games {
		game, err := decodeGame(raw)
		if err != nil {
			return usecase.ProviderRound{}, fmt.Errorf("round game %d: %w", i, err)
		}
		games = append(games, game)
	}

	return usecase.ProviderRound{
		Type:        strings.TrimSpace(item.Type),
		SeasonRefID: item.SeasonID,
		Season:      item.Season,
		CurrentWeek: item.CurrentWeek,
		StartDate:   parseProviderDateTime(item.StartDate),
		EndDate:     parseProviderDateTime(item.EndDate),
		Games:       games,
	}, nil
}

// The provider emits naive local timestamps without a zone suffix;
// RFC3339 shows up on a few date-only fields.
func parseProviderDateTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02T15:04:05", time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}
