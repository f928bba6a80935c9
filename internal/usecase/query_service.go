package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/openfooty/matchday/internal/domain/fixture"
	"github.com/openfooty/matchday/internal/domain/season"
	"github.com/openfooty/matchday/internal/platform/cache"
)

func currentSeasonCacheKey(competition string) string {
	return "seasons:current:" + competition
}

func fixtureCachePrefix(seasonID string) string {
	return "fixtures:" + seasonID + ":"
}

func matchWeekCacheKey(seasonID string, week int) string {
	return fixtureCachePrefix(seasonID) + "week:" + strconv.Itoa(week)
}

// QueryService is the read surface over seasons and fixtures. Results
// are cached with a short TTL and invalidated by sync writes.
type QueryService struct {
	seasonRepo  season.Repository
	fixtureRepo fixture.Repository
	cacheStore  *cache.Store
}

func NewQueryService(seasonRepo season.Repository, fixtureRepo fixture.Repository, cacheStore *cache.Store) *QueryService {
	return &QueryService{
		seasonRepo:  seasonRepo,
		fixtureRepo: fixtureRepo,
		cacheStore:  cacheStore,
	}
}

// GetCurrentSeason returns the season currently flagged for the
// competition. The bool reports whether one exists.
func (s *QueryService) GetCurrentSeason(ctx context.Context, competition string) (season.Season, bool, error) {
	competition = season.NormalizeCompetition(competition)
	if competition == "" {
		return season.Season{}, false, fmt.Errorf("%w: competition is required", ErrInvalidInput)
	}

	ctx, span := startUsecaseSpan(ctx, "QueryService.GetCurrentSeason")
	defer span.End()

	type lookup struct {
		Season season.Season
		Found  bool
	}

	load := func(ctx context.Context) (any, error) {
		item, found, err := s.seasonRepo.GetCurrent(ctx, competition)
		if err != nil {
			return nil, fmt.Errorf("get current season: %w", err)
		}
		return lookup{Season: item, Found: found}, nil
	}

	if s.cacheStore == nil {
		out, err := load(ctx)
		if err != nil {
			return season.Season{}, false, err
		}
		result := out.(lookup)
		return result.Season, result.Found, nil
	}

	out, err := s.cacheStore.GetOrLoad(ctx, currentSeasonCacheKey(competition), load)
	if err != nil {
		return season.Season{}, false, err
	}
	result, ok := out.(lookup)
	if !ok {
		return season.Season{}, false, fmt.Errorf("unexpected cache payload type %T", out)
	}
	return result.Season, result.Found, nil
}

// ListFixturesByMatchWeek returns the stored fixtures for one week of
// a season, sorted by upstream game id.
func (s *QueryService) ListFixturesByMatchWeek(ctx context.Context, seasonID string, week int) ([]fixture.Fixture, error) {
	seasonID = strings.TrimSpace(seasonID)
	if seasonID == "" {
		return nil, fmt.Errorf("%w: season id is required", ErrInvalidInput)
	}
	if week < 0 {
		return nil, fmt.Errorf("%w: week must not be negative", ErrInvalidInput)
	}

	ctx, span := startUsecaseSpan(ctx, "QueryService.ListFixturesByMatchWeek")
	defer span.End()

	if _, found, err := s.seasonRepo.GetByID(ctx, seasonID); err != nil {
		return nil, fmt.Errorf("get season: %w", err)
	} else if !found {
		return nil, fmt.Errorf("%w: season=%s", ErrNotFound, seasonID)
	}

	load := func(ctx context.Context) (any, error) {
		items, err := s.fixtureRepo.ListBySeasonWeek(ctx, seasonID, week)
		if err != nil {
			return nil, fmt.Errorf("list week fixtures: %w", err)
		}
		sort.SliceStable(items, func(i, j int) bool { return items[i].GameID < items[j].GameID })
		return items, nil
	}

	if s.cacheStore == nil {
		out, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return out.([]fixture.Fixture), nil
	}

	out, err := s.cacheStore.GetOrLoad(ctx, matchWeekCacheKey(seasonID, week), load)
	if err != nil {
		return nil, err
	}
	items, ok := out.([]fixture.Fixture)
	if !ok {
		return nil, fmt.Errorf("unexpected cache payload type %T", out)
	}
	return items, nil
}

// GamesByGameID is the internal-use grouping of one season's stored
// fixtures by upstream game id, uncached.
func (s *QueryService) GamesByGameID(ctx context.Context, seasonID string) (map[int64]fixture.Fixture, error) {
	seasonID = strings.TrimSpace(seasonID)
	if seasonID == "" {
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
