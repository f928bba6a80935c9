package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/openfooty/matchday/internal/domain/fixture"
	"github.com/openfooty/matchday/internal/domain/season"
	"github.com/openfooty/matchday/internal/infrastructure/repository/memory"
	"github.com/openfooty/matchday/internal/platform/logging"
)

type stubProvider struct {
	mu            sync.Mutex
	details       ProviderSeasonDetails
	detailsErr    error
	scheduleByDay map[string][]ProviderGame
	scheduleErr   error
	detailCalls   int
	dateCalls     []string
}

func (p *stubProvider) FetchSeasonDetails(_ context.Context, _ string) (ProviderSeasonDetails, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detailCalls++
	if p.detailsErr != nil {
		return ProviderSeasonDetails{}, p.detailsErr
	}
	return p.details, nil
}

func (p *stubProvider) FetchScheduleByDate(_ context.Context, _ string, day time.Time) ([]ProviderGame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := day.Format("2006-01-02")
	p.dateCalls = append(p.dateCalls, key)
	if p.scheduleErr != nil {
		return nil, p.scheduleErr
	}
	return p.scheduleByDay[key], nil
}

type flakyFixtureRepo struct {
	*memory.FixtureRepository
	failGameID int64
}

func (r *flakyFixtureRepo) Insert(ctx context.Context, item fixture.Fixture) (string, error) {
	if item.GameID == r.failGameID {
		return "", errors.New("storage rejected record")
	}
	return r.FixtureRepository.Insert(ctx, item)
}

func providerGame(gameID int64, week int, status, day string) ProviderGame {
	d, _ := time.Parse("2006-01-02", day)
	return ProviderGame{
		GameID:      gameID,
		Week:        week,
		Status:      status,
		DateTime:    d.Add(19 * time.Hour),
		Day:         d,
		HomeTeamKey: "ATL",
		AwayTeamKey: "CLB",
		Record: map[string]any{
			"GameId":        gameID,
			"Week":          week,
			"Status":        status,
			"Day":           day + "T00:00:00",
			"HomeTeamKey":   "ATL",
			"AwayTeamKey":   "CLB",
			"VenueType":     "Home Stadium",
			"HomeTeamScore": nil,
		},
	}
}

func tableDetails(currentWeek int, games ...ProviderGame) ProviderSeasonDetails {
	return ProviderSeasonDetails{
		CompetitionName: "Major League Soccer",
		SeasonName:      "2026",
		Rounds: []ProviderRound{
			{Type: "Playoffs", SeasonRefID: 151, Season: 2026},
			{
				Type:        "Table",
				SeasonRefID: 150,
				Season:      2026,
				CurrentWeek: currentWeek,
				StartDate:   time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC),
				EndDate:     time.Date(2026, 10, 4, 0, 0, 0, 0, time.UTC),
				Games:       games,
			},
		},
	}
}

func newSyncFixture(provider *stubProvider) (*SyncService, *memory.SeasonRepository, *memory.FixtureRepository) {
	seasons := memory.NewSeasonRepository(nil)
	fixtures := memory.NewFixtureRepository(nil)
	svc := NewSyncService(seasons, fixtures, provider, nil, logging.NewNop(), 2)
	return svc, seasons, fixtures
}

func TestSyncCurrentSeason_CreatesSeasonAndFixtures(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{details: tableDetails(5,
		providerGame(101, 5, "Scheduled", "2026-05-02"),
		providerGame(102, 5, "Scheduled", "2026-05-02"),
		providerGame(103, 5, "Scheduled", "2026-05-03"),
	)}
	svc, seasons, _ := newSyncFixture(provider)
	ctx := context.Background()

	report, err := svc.SyncCurrentSeason(ctx, "MLS")
	if err != nil {
		t.Fatalf("sync current season: %v", err)
	}

	if report.Outcome != SyncOutcomeSynced || !report.Created {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.Inserted != 3 || report.Patched != 0 || report.Failed != 0 {
		t.Fatalf("unexpected counts: %+v", report)
	}
	if report.SeasonLabel != "Major League Soccer 2026" {
		t.Fatalf("unexpected label: %s", report.SeasonLabel)
	}

	stored, found, err := seasons.GetCurrent(ctx, "mls")
	if err != nil || !found {
		t.Fatalf("expected stored current season, found=%v err=%v", found, err)
	}
	if stored.ID != report.SeasonID || stored.SeasonRefID != 150 || stored.CurrentWeek != 5 {
		t.Fatalf("unexpected season: %+v", stored)
	}

	index, err := svc.GamesByGameID(ctx, report.SeasonID)
	if err != nil {
		t.Fatalf("games by game id: %v", err)
	}
	if len(index) != 3 {
		t.Fatalf("expected 3 indexed fixtures, got=%d", len(index))
	}
	for _, gameID := range []int64{101, 102, 103} {
		item, ok := index[gameID]
		if !ok {
			t.Fatalf("fixture for game %d not findable", gameID)
		}
		if item.SeasonID != report.SeasonID || item.Week != 5 {
			t.Fatalf("unexpected fixture for game %d: %+v", gameID, item)
		}
		if item.Attrs["venueType"] != "Home Stadium" {
			t.Fatalf("expected camelized attr bag for game %d, got=%v", gameID, item.Attrs)
		}
		// No typed column stores the provider's day field; it must
		// survive in the bag untouched.
		if item.Attrs["day"] != item.Date.Format("2006-01-02")+"T00:00:00" {
			t.Fatalf("expected day to pass through for game %d, got=%v", gameID, item.Attrs["day"])
		}
	}
}

func TestSyncCurrentSeason_SecondRunPatchesInPlace(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{details: tableDetails(5,
		providerGame(101, 5, "Scheduled", "2026-05-02"),
		providerGame(102, 5, "Scheduled", "2026-05-02"),
		providerGame(103, 5, "Scheduled", "2026-05-03"),
	)}
	svc, _, _ := newSyncFixture(provider)
	ctx := context.Background()

	first, err := svc.SyncCurrentSeason(ctx, "mls")
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}
	firstIndex, err := svc.GamesByGameID(ctx, first.SeasonID)
	if err != nil {
		t.Fatalf("games by game id: %v", err)
	}

	// Same payload except game 102 flips to Final.
	provider.mu.Lock()
	provider.details = tableDetails(5,
		providerGame(101, 5, "Scheduled", "2026-05-02"),
		providerGame(102, 5, "Final", "2026-05-02"),
		providerGame(103, 5, "Scheduled", "2026-05-03"),
	)
	provider.mu.Unlock()

	second, err := svc.SyncCurrentSeason(ctx, "mls")
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if second.SeasonID != first.SeasonID || second.Created {
		t.Fatalf("expected same season reused, first=%s second=%+v", first.SeasonID, second)
	}
	if second.Inserted != 0 || second.Patched != 3 || second.Failed != 0 {
		t.Fatalf("expected patch-only second run: %+v", second)
	}

	secondIndex, err := svc.GamesByGameID(ctx, first.SeasonID)
	if err != nil {
		t.Fatalf("games by game id: %v", err)
	}
	if len(secondIndex) != 3 {
		t.Fatalf("expected stored count unchanged, got=%d", len(secondIndex))
	}
	for _, gameID := range []int64{101, 102, 103} {
		if secondIndex[gameID].ID != firstIndex[gameID].ID {
			t.Fatalf("expected internal id stable for game %d", gameID)
		}
	}
	if got := secondIndex[102].Status; got != "Final" {
		t.Fatalf("expected game 102 status updated, got=%s", got)
	}
	if got := secondIndex[101].Status; got != "Scheduled" {
		t.Fatalf("expected game 101 untouched, got=%s", got)
	}
}

func TestEnsureCurrentSeason_SecondCallReturnsSameID(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{details: tableDetails(5)}
	svc, seasons, _ := newSyncFixture(provider)
	ctx := context.Background()

	first, err := svc.EnsureCurrentSeason(ctx, "mls")
	if err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	if !first.Created || first.Season.ID == "" {
		t.Fatalf("expected season created, got=%+v", first)
	}

	second, err := svc.EnsureCurrentSeason(ctx, "mls")
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if second.Created {
		t.Fatal("expected second call to reuse stored season")
	}
	if second.Season.ID != first.Season.ID {
		t.Fatalf("expected same season id, first=%s second=%s", first.Season.ID, second.Season.ID)
	}

	stored, found, err := seasons.GetCurrent(ctx, "mls")
	if err != nil || !found {
		t.Fatalf("get current: found=%v err=%v", found, err)
	}
	if stored.ID != first.Season.ID {
		t.Fatalf("unexpected stored season: %+v", stored)
	}
}

func TestEnsureCurrentSeason_NoTableRound(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{details: ProviderSeasonDetails{
		CompetitionName: "Major League Soccer",
		SeasonName:      "2026",
		Rounds:          []ProviderRound{{Type: "Playoffs", SeasonRefID: 151}},
	}}
	svc, seasons, _ := newSyncFixture(provider)
	ctx := context.Background()

	report, err := svc.SyncCurrentSeason(ctx, "mls")
	if err != nil {
		t.Fatalf("sync current season: %v", err)
	}
	if report.Outcome != SyncOutcomeNoCurrentSeasonData {
		t.Fatalf("unexpected outcome: %+v", report)
	}
	if report.SeasonID != "" || len(report.Results) != 0 {
		t.Fatalf("expected no writes reported: %+v", report)
	}

	if _, found, _ := seasons.GetCurrent(ctx, "mls"); found {
		t.Fatal("expected no season written")
	}
}

func TestEnsureCurrentSeason_ProviderErrorPropagates(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{detailsErr: errors.New("provider down")}
	svc, seasons, _ := newSyncFixture(provider)

	if _, err := svc.EnsureCurrentSeason(context.Background(), "mls"); err == nil {
		t.Fatal("expected fetch error to propagate")
	}
	if _, found, _ := seasons.GetCurrent(context.Background(), "mls"); found {
		t.Fatal("expected no season written on fetch error")
	}
}

func TestSyncCurrentSeason_PerRecordFailureIsolated(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{details: tableDetails(5,
		providerGame(101, 5, "Scheduled", "2026-05-02"),
		providerGame(102, 5, "Scheduled", "2026-05-02"),
		providerGame(103, 5, "Scheduled", "2026-05-03"),
	)}
	seasons := memory.NewSeasonRepository(nil)
	fixtures := &flakyFixtureRepo{FixtureRepository: memory.NewFixtureRepository(nil), failGameID: 102}
	svc := NewSyncService(seasons, fixtures, provider, nil, logging.NewNop(), 2)
	ctx := context.Background()

	report, err := svc.SyncCurrentSeason(ctx, "mls")
	if err != nil {
		t.Fatalf("expected batch to survive record failure, got=%v", err)
	}
	if report.Inserted != 2 || report.Failed != 1 {
		t.Fatalf("unexpected counts: %+v", report)
	}

	var failedGame int64
	for _, item := range report.Results {
		if item.Action == FixtureActionFailed {
			failedGame = item.GameID
			if item.Error == "" {
				t.Fatal("expected failure reason recorded")
			}
		}
	}
	if failedGame != 102 {
		t.Fatalf("expected game 102 reported failed, got=%d", failedGame)
	}

	index, err := svc.GamesByGameID(ctx, report.SeasonID)
	if err != nil {
		t.Fatalf("games by game id: %v", err)
	}
	if len(index) != 2 {
		t.Fatalf("expected 2 stored fixtures, got=%d", len(index))
	}
}

func TestGamesByGameID_DuplicateRowsLaterWins(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{}
	svc, _, fixtures := newSyncFixture(provider)
	ctx := context.Background()

	if _, err := fixtures.Insert(ctx, fixture.Fixture{SeasonID: "s1", GameID: 101, Status: "Scheduled"}); err != nil {
		t.Fatalf("insert fixture: %v", err)
	}
	laterID, err := fixtures.Insert(ctx, fixture.Fixture{SeasonID: "s1", GameID: 101, Status: "Final"})
	if err != nil {
		t.Fatalf("insert fixture: %v", err)
	}

	index, err := svc.GamesByGameID(ctx, "s1")
	if err != nil {
		t.Fatalf("games by game id: %v", err)
	}
	if len(index) != 1 {
		t.Fatalf("expected one entry per game id, got=%d", len(index))
	}
	if index[101].ID != laterID {
		t.Fatalf("expected later duplicate to win, got=%+v", index[101])
	}
}

func seedWeek(t *testing.T, seasons *memory.SeasonRepository, fixtures *memory.FixtureRepository) string {
	t.Helper()
	ctx := context.Background()

	seasonID, err := seasons.Insert(ctx, season.Season{Competition: "mls", SeasonRefID: 150, Current: true})
	if err != nil {
		t.Fatalf("insert season: %v", err)
	}
	for _, game := range []ProviderGame{
		providerGame(103, 5, "Scheduled", "2026-05-03"),
		providerGame(101, 5, "Scheduled", "2026-05-02"),
		providerGame(102, 5, "Scheduled", "2026-05-02"),
	} {
		if _, err := fixtures.Insert(ctx, buildFixtureChange(seasonID, game)); err != nil {
			t.Fatalf("insert fixture: %v", err)
		}
	}
	return seasonID
}

func TestSyncMatchWeek_PatchesStoredFixtures(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{scheduleByDay: map[string][]ProviderGame{
		"2026-05-02": {
			providerGame(102, 5, "Final", "2026-05-02"),
			providerGame(101, 5, "Final", "2026-05-02"),
		},
		"2026-05-03": {
			providerGame(103, 5, "InProgress", "2026-05-03"),
		},
	}}
	svc, seasons, fixtures := newSyncFixture(provider)
	seasonID := seedWeek(t, seasons, fixtures)
	ctx := context.Background()

	report, err := svc.SyncMatchWeek(ctx, seasonID, 5)
	if err != nil {
		t.Fatalf("sync match week: %v", err)
	}
	if report.CountMismatch {
		t.Fatalf("expected matching counts: %+v", report)
	}
	if report.Patched != 3 || report.Failed != 0 {
		t.Fatalf("unexpected counts: %+v", report)
	}
	if len(provider.dateCalls) != 2 {
		t.Fatalf("expected one fetch per distinct day, got=%v", provider.dateCalls)
	}

	index, err := svc.GamesByGameID(ctx, seasonID)
	if err != nil {
		t.Fatalf("games by game id: %v", err)
	}
	if index[101].Status != "Final" || index[102].Status != "Final" || index[103].Status != "InProgress" {
		t.Fatalf("unexpected statuses: 101=%s 102=%s 103=%s",
			index[101].Status, index[102].Status, index[103].Status)
	}
}

func TestSyncMatchWeek_CountMismatchStillPatchesPairs(t *testing.T) {
	t.Parallel()

	// Upstream only returns two of the three known games.
	provider := &stubProvider{scheduleByDay: map[string][]ProviderGame{
		"2026-05-02": {
			providerGame(101, 5, "Final", "2026-05-02"),
			providerGame(102, 5, "Final", "2026-05-02"),
		},
	}}
	svc, seasons, fixtures := newSyncFixture(provider)
	seasonID := seedWeek(t, seasons, fixtures)

	report, err := svc.SyncMatchWeek(context.Background(), seasonID, 5)
	if err != nil {
		t.Fatalf("sync match week: %v", err)
	}
	if !report.CountMismatch {
		t.Fatal("expected count mismatch flagged")
	}
	if report.StoredCount != 3 || report.UpstreamCount != 2 {
		t.Fatalf("unexpected counts: %+v", report)
	}
	if report.Patched != 2 {
		t.Fatalf("expected min(count) patch attempts, got=%+v", report)
	}
}

func TestSyncMatchWeek_FetchErrorAborts(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{scheduleErr: errors.New("provider down")}
	svc, seasons, fixtures := newSyncFixture(provider)
	seasonID := seedWeek(t, seasons, fixtures)
	ctx := context.Background()

	if _, err := svc.SyncMatchWeek(ctx, seasonID, 5); err == nil {
		t.Fatal("expected fetch error to abort the operation")
	}

	index, err := svc.GamesByGameID(ctx, seasonID)
	if err != nil {
		t.Fatalf("games by game id: %v", err)
	}
	for gameID, item := range index {
		if item.Status != "Scheduled" {
			t.Fatalf("expected game %d untouched, got=%s", gameID, item.Status)
		}
	}
}

func TestSyncMatchWeek_UnknownSeason(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{}
	svc, _, _ := newSyncFixture(provider)

	_, err := svc.SyncMatchWeek(context.Background(), "missing", 5)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got=%v", err)
	}
}
