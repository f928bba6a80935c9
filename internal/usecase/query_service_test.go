package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openfooty/matchday/internal/domain/fixture"
	"github.com/openfooty/matchday/internal/domain/season"
	"github.com/openfooty/matchday/internal/infrastructure/repository/memory"
	"github.com/openfooty/matchday/internal/platform/cache"
)

func TestQueryService_GetCurrentSeason(t *testing.T) {
	t.Parallel()

	seasons := memory.NewSeasonRepository(nil)
	fixtures := memory.NewFixtureRepository(nil)
	svc := NewQueryService(seasons, fixtures, cache.NewStore(time.Minute))
	ctx := context.Background()

	_, found, err := svc.GetCurrentSeason(ctx, "mls")
	require.NoError(t, err)
	require.False(t, found)

	// The miss above is cached; a fresh store makes the insert visible.
	seasonID, err := seasons.Insert(ctx, season.Season{Competition: "mls", SeasonRefID: 150, Current: true})
	require.NoError(t, err)

	svc = NewQueryService(seasons, fixtures, cache.NewStore(time.Minute))
	got, found, err := svc.GetCurrentSeason(ctx, "MLS")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, seasonID, got.ID)
}

func TestQueryService_ListFixturesByMatchWeek_SortedByGameID(t *testing.T) {
	t.Parallel()

	seasons := memory.NewSeasonRepository(nil)
	fixtures := memory.NewFixtureRepository(nil)
	svc := NewQueryService(seasons, fixtures, nil)
	ctx := context.Background()

	seasonID, err := seasons.Insert(ctx, season.Season{Competition: "mls", Current: true})
	require.NoError(t, err)

	for _, gameID := range []int64{103, 101, 102} {
		_, err := fixtures.Insert(ctx, fixture.Fixture{SeasonID: seasonID, GameID: gameID, Week: 5})
		require.NoError(t, err)
	}

	items, err := svc.ListFixturesByMatchWeek(ctx, seasonID, 5)
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, int64(101), items[0].GameID)
	require.Equal(t, int64(102), items[1].GameID)
	require.Equal(t, int64(103), items[2].GameID)
}

func TestQueryService_ListFixturesByMatchWeek_UnknownSeason(t *testing.T) {
	t.Parallel()

	svc := NewQueryService(memory.NewSeasonRepository(nil), memory.NewFixtureRepository(nil), nil)

	_, err := svc.ListFixturesByMatchWeek(context.Background(), "missing", 5)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestQueryService_InvalidInput(t *testing.T) {
	t.Parallel()

	svc := NewQueryService(memory.NewSeasonRepository(nil), memory.NewFixtureRepository(nil), nil)
	ctx := context.Background()

	_, _, err := svc.GetCurrentSeason(ctx, "  ")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.ListFixturesByMatchWeek(ctx, "s1", -1)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.GamesByGameID(ctx, "")
	require.ErrorIs(t, err, ErrInvalidInput)
}
