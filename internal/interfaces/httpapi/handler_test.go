package httpapi

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"

	"github.com/openfooty/matchday/internal/infrastructure/repository/memory"
	"github.com/openfooty/matchday/internal/platform/cache"
	"github.com/openfooty/matchday/internal/platform/logging"
	"github.com/openfooty/matchday/internal/usecase"
)

type stubScheduleProvider struct {
	details usecase.ProviderSeasonDetails
	err     error
}

func (s *stubScheduleProvider) FetchSeasonDetails(_ context.Context, _ string) (usecase.ProviderSeasonDetails, error) {
	return s.details, s.err
}

func (s *stubScheduleProvider) FetchScheduleByDate(_ context.Context, _ string, _ time.Time) ([]usecase.ProviderGame, error) {
	return nil, s.err
}

func testProviderGame(gameID int64, week int) usecase.ProviderGame {
	day := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	return usecase.ProviderGame{
		GameID:      gameID,
		Week:        week,
		Status:      "Scheduled",
		DateTime:    day.Add(19 * time.Hour),
		Day:         day,
		HomeTeamKey: "SEA",
		AwayTeamKey: "LAG",
		Record: map[string]any{
			"GameId":      float64(gameID),
			"Week":        float64(week),
			"Status":      "Scheduled",
			"HomeTeamKey": "SEA",
			"AwayTeamKey": "LAG",
			"VenueType":   "Home Stadium",
		},
	}
}

func newTestRouter(t *testing.T, provider usecase.ScheduleProvider, jobToken string) http.Handler {
	t.Helper()

	seasonRepo := memory.NewSeasonRepository(nil)
	fixtureRepo := memory.NewFixtureRepository(nil)
	store := cache.NewStore(time.Minute)
	logger := logging.NewNop()

	syncService := usecase.NewSyncService(seasonRepo, fixtureRepo, provider, store, logger, 2)
	queryService := usecase.NewQueryService(seasonRepo, fixtureRepo, store)
	handler := NewHandler(syncService, queryService, logger)

	return NewRouter(handler, logger, RouterConfig{
		CORSAllowedOrigins: []string{"*"},
		InternalJobToken:   jobToken,
	})
}

func postJSON(t *testing.T, router http.Handler, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := sonic.Marshal(payload)
	if err != nil {
		t.Fatalf("unable to encode request body: %v", err)
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(internalJobTokenHeader, token)
	}
	router.ServeHTTP(rec, req)
	return rec
}

func getPath(router http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &stubScheduleProvider{}, "secret")

	rec := getPath(router, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	envelope := decodeEnvelope(t, rec)
	data, ok := envelope.Data.(map[string]any)
	if !ok || data["status"] != "ok" {
		t.Fatalf("unexpected health payload: %+v", envelope.Data)
	}
}

func TestSyncSeasonJobThenQuery(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC)
	provider := &stubScheduleProvider{
		details: usecase.ProviderSeasonDetails{
			CompetitionName: "Major League Soccer",
			SeasonName:      "2026",
			Rounds: []usecase.ProviderRound{
				{
					Type:        "Table",
					SeasonRefID: 9001,
					Season:      2026,
					CurrentWeek: 3,
					StartDate:   start,
					EndDate:     start.AddDate(0, 8, 0),
					Games: []usecase.ProviderGame{
						testProviderGame(102, 3),
						testProviderGame(101, 3),
					},
				},
			},
		},
	}
	router := newTestRouter(t, provider, "secret")

	rec := postJSON(t, router, "/v1/internal/jobs/sync-season", "secret", map[string]string{"competition": "MLS"})
	if rec.Code != http.StatusOK {
		t.Fatalf("sync job failed with status %d: %s", rec.Code, rec.Body.String())
	}

	var jobEnvelope struct {
		Data usecase.SeasonSyncReport `json:"data"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &jobEnvelope); err != nil {
		t.Fatalf("unable to decode job report: %v", err)
	}
	report := jobEnvelope.Data
	if report.Outcome != usecase.SyncOutcomeSynced {
		t.Fatalf("unexpected outcome: %q", report.Outcome)
	}
	if report.Inserted != 2 || report.Failed != 0 {
		t.Fatalf("unexpected report tallies: %+v", report)
	}
	if !report.Created || report.SeasonID == "" {
		t.Fatalf("expected a freshly created season in the report: %+v", report)
	}

	rec = getPath(router, "/v1/competitions/mls/seasons/current")
	if rec.Code != http.StatusOK {
		t.Fatalf("get current season failed with status %d: %s", rec.Code, rec.Body.String())
	}
	var seasonEnvelope struct {
		Data seasonResponse `json:"data"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &seasonEnvelope); err != nil {
		t.Fatalf("unable to decode season: %v", err)
	}
	if seasonEnvelope.Data.Label != "Major League Soccer 2026" {
		t.Fatalf("unexpected season label: %q", seasonEnvelope.Data.Label)
	}
	if seasonEnvelope.Data.ID != report.SeasonID {
		t.Fatalf("query returned a different season than the sync created")
	}

	rec = getPath(router, "/v1/seasons/"+report.SeasonID+"/matchweeks/3/fixtures")
	if rec.Code != http.StatusOK {
		t.Fatalf("list fixtures failed with status %d: %s", rec.Code, rec.Body.String())
	}
	var fixturesEnvelope struct {
		Data []fixtureResponse `json:"data"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &fixturesEnvelope); err != nil {
		t.Fatalf("unable to decode fixtures: %v", err)
	}
	if len(fixturesEnvelope.Data) != 2 {
		t.Fatalf("expected 2 fixtures, got %d", len(fixturesEnvelope.Data))
	}
	if fixturesEnvelope.Data[0].GameID != 101 || fixturesEnvelope.Data[1].GameID != 102 {
		t.Fatalf("fixtures not ordered by game id: %+v", fixturesEnvelope.Data)
	}
	if fixturesEnvelope.Data[0].Attrs["venueType"] != "Home Stadium" {
		t.Fatalf("expected camelized provider attrs, got %+v", fixturesEnvelope.Data[0].Attrs)
	}
}

func TestGetCurrentSeason_UnknownCompetition(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &stubScheduleProvider{}, "secret")

	rec := getPath(router, "/v1/competitions/epl/seasons/current")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListFixtures_InvalidWeek(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &stubScheduleProvider{}, "secret")

	rec := getPath(router, "/v1/seasons/s1/matchweeks/abc/fixtures")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSyncMatchWeekJob_Validation(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &stubScheduleProvider{}, "secret")

	rec := postJSON(t, router, "/v1/internal/jobs/sync-matchweek", "secret", map[string]any{"week": 3})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing seasonId, got %d", rec.Code)
	}

	rec = postJSON(t, router, "/v1/internal/jobs/sync-matchweek", "secret", map[string]any{"seasonId": "missing", "week": 3})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown season, got %d", rec.Code)
	}
}

func TestSyncSeasonJob_RequiresToken(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &stubScheduleProvider{}, "secret")

	rec := postJSON(t, router, "/v1/internal/jobs/sync-season", "", map[string]string{"competition": "mls"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}
