package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/openfooty/matchday/internal/domain/fixture"
	"github.com/openfooty/matchday/internal/domain/season"
	"github.com/openfooty/matchday/internal/platform/logging"
	"github.com/openfooty/matchday/internal/usecase"
)

// Handler carries the API dependencies shared by every route.
type Handler struct {
	syncService  *usecase.SyncService
	queryService *usecase.QueryService
	logger       *logging.Logger
	validate     *validator.Validate
}

func NewHandler(syncService *usecase.SyncService, queryService *usecase.QueryService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		syncService:  syncService,
		queryService: queryService,
		logger:       logger,
		validate:     validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeSuccess(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

type seasonResponse struct {
	ID          string    `json:"id"`
	Competition string    `json:"competition"`
	SeasonRefID int64     `json:"seasonRefId"`
	Label       string    `json:"label"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	CurrentWeek int       `json:"currentWeek"`
	Current     bool      `json:"current"`
}

func toSeasonResponse(item season.Season) seasonResponse {
	return seasonResponse{
		ID:          item.ID,
		Competition: item.Competition,
		SeasonRefID: item.SeasonRefID,
		Label:       item.Label,
		StartDate:   item.StartDate,
		EndDate:     item.EndDate,
		CurrentWeek: item.CurrentWeek,
		Current:     item.Current,
	}
}

type fixtureResponse struct {
	ID       string         `json:"id"`
	SeasonID string         `json:"seasonId"`
	GameID   int64          `json:"gameId"`
	Week     int            `json:"week"`
	Status   string         `json:"status"`
	Date     time.Time      `json:"date"`
	HomeTeam string         `json:"homeTeam"`
	AwayTeam string         `json:"awayTeam"`
	Attrs    map[string]any `json:"attrs,omitempty"`
}

func toFixtureResponses(items []fixture.Fixture) []fixtureResponse {
	out := make([]fixtureResponse, 0, len(items))
	for _, item := range items {
		out = append(out, fixtureResponse{
			ID:       item.ID,
			SeasonID: item.SeasonID,
			GameID:   item.GameID,
			Week:     item.Week,
			Status:   item.Status,
			Date:     item.Date,
			HomeTeam: item.HomeTeam,
			AwayTeam: item.AwayTeam,
			Attrs:    item.Attrs,
		})
	}
	return out
}

func (h *Handler) GetCurrentSeason(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCurrentSeason")
	defer span.End()

	competition := r.PathValue("competition")

	item, found, err := h.queryService.GetCurrentSeason(ctx, competition)
	if err != nil {
		h.logger.WarnContext(ctx, "unable to get current season", "competition", competition, "error", err)
		mapError(ctx, w, err)
		return
	}
	if !found {
		mapError(ctx, w, fmt.Errorf("%w: no current season for competition %q", usecase.ErrNotFound, competition))
		return
	}

	writeSuccess(ctx, w, http.StatusOK, toSeasonResponse(item))
}

func (h *Handler) ListFixturesByMatchWeek(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFixturesByMatchWeek")
	defer span.End()

	seasonID := r.PathValue("seasonID")
	week, err := strconv.Atoi(r.PathValue("week"))
	if err != nil {
		mapError(ctx, w, fmt.Errorf("%w: week must be an integer", usecase.ErrInvalidInput))
		return
	}

	items, err := h.queryService.ListFixturesByMatchWeek(ctx, seasonID, week)
	if err != nil {
		h.logger.WarnContext(ctx, "unable to list fixtures by match week", "season_id", seasonID, "week", week, "error", err)
		mapError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, toFixtureResponses(items))
}
