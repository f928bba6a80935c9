package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc"

	"github.com/openfooty/matchday/internal/domain/fixture"
	"github.com/openfooty/matchday/internal/domain/season"
	"github.com/openfooty/matchday/internal/platform/cache"
	"github.com/openfooty/matchday/internal/platform/keymap"
	"github.com/openfooty/matchday/internal/platform/logging"
)

// roundTypeTable marks the regular-season round in the provider's
// round list. Matched case-insensitively.
const roundTypeTable = "table"

const defaultFetchWorkers = 4

// ScheduleProvider is the upstream schedule source. Implementations do
// pure I/O; retries and breaker policy live inside the client.
type ScheduleProvider interface {
	FetchSeasonDetails(ctx context.Context, competition string) (ProviderSeasonDetails, error)
	FetchScheduleByDate(ctx context.Context, competition string, day time.Time) ([]ProviderGame, error)
}

type ProviderSeasonDetails struct {
	CompetitionName string
	SeasonName      string
	Rounds          []ProviderRound
}

type ProviderRound struct {
	Type        string
	SeasonRefID int64
	Season      int
	CurrentWeek int
	StartDate   time.Time
	EndDate     time.Time
	Games       []ProviderGame
}

// ProviderGame is one upstream fixture: the typed core the reconciler
// needs plus the full raw record with the provider's original casing.
type ProviderGame struct {
	GameID      int64
	Week        int
	Status      string
	DateTime    time.Time
	Day         time.Time
	HomeTeamKey string
	AwayTeamKey string
	Record      map[string]any
}

const (
	FixtureActionInserted = "inserted"
	FixtureActionPatched  = "patched"
	FixtureActionFailed   = "failed"
)

const (
	SyncOutcomeSynced              = "synced"
	SyncOutcomeNoCurrentSeasonData = "no_current_season_data"
)

// FixtureSyncResult records the outcome of one upsert attempt.
type FixtureSyncResult struct {
	GameID int64  `json:"gameId"`
	Action string `json:"action"`
	Error  string `json:"error,omitempty"`
}

// SeasonSyncReport is the machine-readable result of a whole-season
// sync run.
type SeasonSyncReport struct {
	Competition string              `json:"competition"`
	Outcome     string              `json:"outcome"`
	SeasonID    string              `json:"seasonId,omitempty"`
	SeasonLabel string              `json:"seasonLabel,omitempty"`
	Created     bool                `json:"seasonCreated"`
	Inserted    int                 `json:"inserted"`
	Patched     int                 `json:"patched"`
	Failed      int                 `json:"failed"`
	Results     []FixtureSyncResult `json:"results"`
}

// MatchWeekReport is the machine-readable result of a single-week
// re-verification run.
type MatchWeekReport struct {
	SeasonID      string              `json:"seasonId"`
	Week          int                 `json:"week"`
	StoredCount   int                 `json:"storedCount"`
	UpstreamCount int                 `json:"upstreamCount"`
	CountMismatch bool                `json:"countMismatch"`
	Patched       int                 `json:"patched"`
	Failed        int                 `json:"failed"`
	Results       []FixtureSyncResult `json:"results"`
}

// SyncService reconciles provider schedule data into local storage.
// No locking guards concurrent runs against the same season; callers
// are expected to serialize sync invocations per season.
type SyncService struct {
	seasonRepo   season.Repository
	fixtureRepo  fixture.Repository
	provider     ScheduleProvider
	cacheStore   *cache.Store
	logger       *logging.Logger
	fetchWorkers int
}

func NewSyncService(
	seasonRepo season.Repository,
	fixtureRepo fixture.Repository,
	provider ScheduleProvider,
	cacheStore *cache.Store,
	logger *logging.Logger,
	fetchWorkers int,
) *SyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if fetchWorkers < 1 {
		fetchWorkers = defaultFetchWorkers
	}
	return &SyncService{
		seasonRepo:   seasonRepo,
		fixtureRepo:  fixtureRepo,
		provider:     provider,
		cacheStore:   cacheStore,
		logger:       logger,
		fetchWorkers: fetchWorkers,
	}
}

// SeasonOutcome describes what EnsureCurrentSeason found or created.
// NoData means the provider listed no regular-season round; that is a
// legitimate empty result, not an error, and nothing was written.
type SeasonOutcome struct {
	Season  season.Season
	Label   string
	Created bool
	NoData  bool
}

// EnsureCurrentSeason locates the stored current season for the
// competition or creates one from the provider's regular-season round.
func (s *SyncService) EnsureCurrentSeason(ctx context.Context, competition string) (SeasonOutcome, error) {
	outcome, _, err := s.ensureCurrentSeason(ctx, competition)
	return outcome, err
}

// ensureCurrentSeason additionally returns the provider's table round
// so SyncCurrentSeason can reuse the fetch for the fixture pass.
func (s *SyncService) ensureCurrentSeason(ctx context.Context, competition string) (SeasonOutcome, *ProviderRound, error) {
	competition = season.NormalizeCompetition(competition)
	if competition == "" {
		return SeasonOutcome{}, nil, fmt.Errorf("%w: competition is required", ErrInvalidInput)
	}

	ctx, span := startUsecaseSpan(ctx, "SyncService.EnsureCurrentSeason")
	defer span.End()

	// The storage read and the provider fetch have no ordering
	// dependency; run them concurrently and combine afterwards.
	var (
		stored   season.Season
		found    bool
		readErr  error
		details  ProviderSeasonDetails
		fetchErr error
	)
	var wg conc.WaitGroup
	wg.Go(func() {
		stored, found, readErr = s.seasonRepo.GetCurrent(ctx, competition)
	})
	wg.Go(func() {
		details, fetchErr = s.provider.FetchSeasonDetails(ctx, competition)
	})
	wg.Wait()

	if fetchErr != nil {
		return SeasonOutcome{}, nil, fmt.Errorf("fetch season details: %w", fetchErr)
	}
	if readErr != nil {
		return SeasonOutcome{}, nil, fmt.Errorf("get current season: %w", readErr)
	}

	label := strings.TrimSpace(details.CompetitionName + " " + details.SeasonName)
	table := findTableRound(details.Rounds)
	if table == nil {
		s.logger.InfoContext(ctx, "no current season data found upstream",
			"competition", competition,
			"season", label,
		)
		return SeasonOutcome{Label: label, NoData: true}, nil, nil
	}

	if found {
		// Existing current season wins; round metadata is not applied
		// to it on this path.
		return SeasonOutcome{Season: stored, Label: label}, table, nil
	}

	item := season.Season{
		Competition: competition,
		SeasonRefID: table.SeasonRefID,
		Label:       label,
		StartDate:   table.StartDate,
		EndDate:     table.EndDate,
		CurrentWeek: table.CurrentWeek,
		Current:     true,
	}
	newID, err := s.seasonRepo.Insert(ctx, item)
	if err != nil {
		return SeasonOutcome{}, nil, fmt.Errorf("insert season: %w", err)
	}
	item.ID = newID

	s.logger.InfoContext(ctx, "created season",
		"competition", competition,
		"season", label,
		"season_id", newID,
		"season_ref_id", table.SeasonRefID,
	)

	return SeasonOutcome{Season: item, Label: label, Created: true}, table, nil
}

// SyncCurrentSeason runs the whole-season path: ensure the season
// exists, then reconcile every game of the regular-season round.
func (s *SyncService) SyncCurrentSeason(ctx context.Context, competition string) (SeasonSyncReport, error) {
	ctx, span := startUsecaseSpan(ctx, "SyncService.SyncCurrentSeason")
	defer span.End()

	outcome, table, err := s.ensureCurrentSeason(ctx, competition)
	if err != nil {
		return SeasonSyncReport{}, err
	}

	report := SeasonSyncReport{
		Competition: season.NormalizeCompetition(competition),
		SeasonLabel: outcome.Label,
	}
	if outcome.NoData {
		report.Outcome = SyncOutcomeNoCurrentSeasonData
		return report, nil
	}

	report.Outcome = SyncOutcomeSynced
	report.SeasonID = outcome.Season.ID
	report.Created = outcome.Created

	s.logger.InfoContext(ctx, "updating fixtures",
		"competition", report.Competition,
		"season", outcome.Label,
		"game_count", len(table.Games),
	)

	results, err := s.syncFixtures(ctx, outcome.Season.ID, table.Games)
	if err != nil {
		return report, err
	}
	report.Results = results
	report.Inserted, report.Patched, report.Failed = tallyResults(results)

	s.invalidateQueryCache(ctx, report.Competition, outcome.Season.ID)

	return report, nil
}

// GamesByGameID groups every stored fixture of one season by its
// upstream game id. If storage holds duplicate rows for the same game
// id the later row silently wins.
func (s *SyncService) GamesByGameID(ctx context.Context, seasonID string) (map[int64]fixture.Fixture, error) {
	if strings.TrimSpace(seasonID) == "" {
		return nil, fmt.Errorf("%w: season id is required", ErrInvalidInput)
	}

	items, err := s.fixtureRepo.ListBySeason(ctx, seasonID)
	if err != nil {
		return nil, fmt.Errorf("list fixtures: %w", err)
	}

	index := make(map[int64]fixture.Fixture, len(items))
	for _, item := range items {
		index[item.GameID] = item
	}
	return index, nil
}

// syncFixtures applies one provider game list against storage using
// the game id index: patch when the game id is known, insert
// otherwise. Per-record failures are logged and reported, never fatal
// to the batch.
func (s *SyncService) syncFixtures(ctx context.Context, seasonID string, games []ProviderGame) ([]FixtureSyncResult, error) {
	index, err := s.GamesByGameID(ctx, seasonID)
	if err != nil {
		return nil, err
	}

	results := make([]FixtureSyncResult, 0, len(games))
	for _, game := range games {
		change := buildFixtureChange(seasonID, game)

		var action string
		var opErr error
		if existing, ok := index[game.GameID]; ok {
			action = FixtureActionPatched
			opErr = s.fixtureRepo.Patch(ctx, existing.ID, change)
		} else {
			action = FixtureActionInserted
			_, opErr = s.fixtureRepo.Insert(ctx, change)
		}

		if opErr != nil {
			s.logger.ErrorContext(ctx, "unable to update or create fixture",
				"game_id", game.GameID,
				"season_id", seasonID,
				"error", opErr,
			)
			results = append(results, FixtureSyncResult{
				GameID: game.GameID,
				Action: FixtureActionFailed,
				Error:  opErr.Error(),
			})
			continue
		}

		results = append(results, FixtureSyncResult{GameID: game.GameID, Action: action})
	}

	return results, nil
}

// SyncMatchWeek re-verifies one stored week against freshly fetched
// upstream data. Stored fixtures and upstream fixtures are sorted by
// game id independently and paired positionally; a count mismatch is
// logged as a warning and pairing proceeds over the shorter list.
func (s *SyncService) SyncMatchWeek(ctx context.Context, seasonID string, week int) (MatchWeekReport, error) {
	seasonID = strings.TrimSpace(seasonID)
	if seasonID == "" {
		return MatchWeekReport{}, fmt.Errorf("%w: season id is required", ErrInvalidInput)
	}
	if week < 0 {
		return MatchWeekReport{}, fmt.Errorf("%w: week must not be negative", ErrInvalidInput)
	}

	ctx, span := startUsecaseSpan(ctx, "SyncService.SyncMatchWeek")
	defer span.End()

	seasonRec, found, err := s.seasonRepo.GetByID(ctx, seasonID)
	if err != nil {
		return MatchWeekReport{}, fmt.Errorf("get season: %w", err)
	}
	if !found {
		return MatchWeekReport{}, fmt.Errorf("%w: season=%s", ErrNotFound, seasonID)
	}

	stored, err := s.fixtureRepo.ListBySeasonWeek(ctx, seasonID, week)
	if err != nil {
		return MatchWeekReport{}, fmt.Errorf("list week fixtures: %w", err)
	}
	sort.SliceStable(stored, func(i, j int) bool { return stored[i].GameID < stored[j].GameID })

	days := distinctDays(stored)
	upstream, err := s.fetchScheduleForDays(ctx, seasonRec.Competition, days)
	if err != nil {
		return MatchWeekReport{}, err
	}
	sort.SliceStable(upstream, func(i, j int) bool { return upstream[i].GameID < upstream[j].GameID })

	report := MatchWeekReport{
		SeasonID:      seasonID,
		Week:          week,
		StoredCount:   len(stored),
		UpstreamCount: len(upstream),
		CountMismatch: len(stored) != len(upstream),
	}
	if report.CountMismatch {
		s.logger.WarnContext(ctx, "fixture count mismatch between store and provider",
			"season_id", seasonID,
			"week", week,
			"stored_count", len(stored),
			"upstream_count", len(upstream),
		)
	}

	// Positional pairing: game ids should match 1:1 once both lists
	// are sorted. A mismatch above means some pairs may be wrong; the
	// report carries the flag so callers can see it.
	pairs := len(stored)
	if len(upstream) < pairs {
		pairs = len(upstream)
	}
	results := make([]FixtureSyncResult, 0, pairs)
	for i := 0; i < pairs; i++ {
		game := upstream[i]
		change := buildFixtureChange(seasonID, game)
		if err := s.fixtureRepo.Patch(ctx, stored[i].ID, change); err != nil {
			s.logger.ErrorContext(ctx, "unable to update or create fixture",
				"game_id", game.GameID,
				"season_id", seasonID,
				"error", err,
			)
			results = append(results, FixtureSyncResult{
				GameID: game.GameID,
				Action: FixtureActionFailed,
				Error:  err.Error(),
			})
			continue
		}
		results = append(results, FixtureSyncResult{GameID: game.GameID, Action: FixtureActionPatched})
	}

	report.Results = results
	_, report.Patched, report.Failed = tallyResults(results)

	s.invalidateQueryCache(ctx, seasonRec.Competition, seasonID)

	return report, nil
}

// fetchScheduleForDays runs the per-date provider fetches in parallel.
// Any fetch error aborts the whole operation.
func (s *SyncService) fetchScheduleForDays(ctx context.Context, competition string, days []time.Time) ([]ProviderGame, error) {
	if len(days) == 0 {
		return nil, nil
	}

	pool, err := ants.NewPool(s.fetchWorkers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	perDay := make([][]ProviderGame, len(days))
	errs := make([]error, len(days))

	var workers sync.WaitGroup
	for i, day := range days {
		i, day := i, day
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			perDay[i], errs[i] = s.provider.FetchScheduleByDate(ctx, competition, day)
		}); err != nil {
			workers.Done()
			return nil, fmt.Errorf("submit fetch to worker pool: %w", err)
		}
	}
	workers.Wait()

	combined := make([]ProviderGame, 0, len(days)*8)
	for i := range days {
		if errs[i] != nil {
			return nil, fmt.Errorf("fetch schedule date=%s: %w", days[i].Format("2006-01-02"), errs[i])
		}
		combined = append(combined, perDay[i]...)
	}
	return combined, nil
}

// buildFixtureChange normalizes the provider record and shapes the
// partial update applied to storage: typed columns from the game core,
// everything else in the camelized attribute bag.
func buildFixtureChange(seasonID string, game ProviderGame) fixture.Fixture {
	record := keymap.CamelizeKeys(game.Record)
	if record == nil {
		record = map[string]any{}
	}
	record["seasonId"] = seasonID

	// Only keys with a typed column are lifted out of the bag. The
	// provider's day field has none, so it passes through with the rest.
	attrs := make(map[string]any, len(record))
	for key, value := range record {
		switch key {
		case "gameId", "week", "status", "dateTime", "homeTeamKey", "awayTeamKey", "seasonId":
			continue
		}
		attrs[key] = value
	}

	return fixture.Fixture{
		SeasonID: seasonID,
		GameID:   game.GameID,
		Week:     game.Week,
		Status:   game.Status,
		Date:     game.DateTime,
		HomeTeam: game.HomeTeamKey,
		AwayTeam: game.AwayTeamKey,
		Attrs:    attrs,
	}
}

func findTableRound(rounds []ProviderRound) *ProviderRound {
	for i := range rounds {
		if strings.EqualFold(strings.TrimSpace(rounds[i].Type), roundTypeTable) {
			return &rounds[i]
		}
	}
	return nil
}

func distinctDays(items []fixture.Fixture) []time.Time {
	seen := make(map[time.Time]struct{}, len(items))
	days := make([]time.Time, 0, len(items))
	for _, item := range items {
		day := item.Day()
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	sort.SliceStable(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

func tallyResults(results []FixtureSyncResult) (inserted, patched, failed int) {
	for _, item := range results {
		switch item.Action {
		case FixtureActionInserted:
			inserted++
		case FixtureActionPatched:
			patched++
		default:
			failed++
		}
	}
	return inserted, patched, failed
}

func (s *SyncService) invalidateQueryCache(ctx context.Context, competition, seasonID string) {
	if s.cacheStore == nil {
		return
	}
	s.cacheStore.Delete(ctx, currentSeasonCacheKey(competition))
	s.cacheStore.DeletePrefix(ctx, fixtureCachePrefix(seasonID))
}
