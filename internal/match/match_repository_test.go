package match_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leighmacdonald/combatlog/internal/database"
	"github.com/leighmacdonald/combatlog/internal/database/query"
	"github.com/leighmacdonald/combatlog/internal/match"
	"github.com/leighmacdonald/combatlog/internal/tests"
	"github.com/leighmacdonald/combatlog/pkg/combatlog"
	"github.com/stretchr/testify/require"
)

func TestPostgresRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping postgres test in short mode")
	}

	setupCtx, cancel := context.WithTimeout(t.Context(), time.Minute*2)
	defer cancel()

	container, errContainer := tests.NewPostgres(setupCtx)
	if errContainer != nil {
		t.Skipf("Postgres unavailable: %v", errContainer)
	}

	t.Cleanup(func() {
		termCtx, termCancel := context.WithTimeout(context.Background(), time.Second*30)
		defer termCancel()

		_ = container.Terminate(termCtx)
	})

	conn := database.New(container.DSN, true, false)
	require.NoError(t, conn.Connect(setupCtx))
	t.Cleanup(func() { _ = conn.Close() })

	repo := match.NewPostgresRepository(conn)
	matches := match.NewMatches(repo, fixture.Parser, nil)

	matchID, errIngest := matches.Ingest(t.Context(), tests.TestLog("combatlog.txt"))
	require.NoError(t, errIngest)
	require.Positive(t, matchID)

	all, errAll := repo.Events(t.Context(), matchID, combatlog.UnknownKind)
	require.NoError(t, errAll)
	require.Len(t, all, 13)

	kills, errKills := matches.HeroKills(t.Context(), matchID)
	require.NoError(t, errKills)
	require.Equal(t, []combatlog.HeroKills{
		{Hero: "abyssal_underlord", Kills: 1},
		{Hero: "mars", Kills: 2},
	}, kills)

	casts, errCasts := repo.EventsByActor(t.Context(), matchID, "snapfire", combatlog.SpellCast)
	require.NoError(t, errCasts)
	require.Equal(t, []combatlog.Entry{{
		MatchID:   matchID,
		Timestamp: 465_300,
		Event:     combatlog.SpellCastEvt{Actor: "snapfire", Ability: "snapfire_scatterblast", Level: 2},
	}}, casts)

	stats, errStats := repo.Stats(t.Context(), matchID)
	require.NoError(t, errStats)
	require.Equal(t, 13, stats.Events)

	infos, errInfos := repo.Matches(t.Context(), query.Filter{Desc: true})
	require.NoError(t, errInfos)
	require.Len(t, infos, 1)
	require.Equal(t, matchID, infos[0].MatchID)
	require.Equal(t, stats, infos[0].Stats)
	require.WithinDuration(t, time.Now(), infos[0].CreatedOn, time.Minute)

	_, errMissing := repo.Stats(t.Context(), matchID+1000)
	require.ErrorIs(t, errMissing, database.ErrNoResult)

	errBuild := errors.New("build failed")
	_, errSave := repo.SaveMatch(t.Context(), func(_ int64) ([]combatlog.Entry, combatlog.Stats, error) {
		return nil, combatlog.Stats{}, errBuild
	})
	require.ErrorIs(t, errSave, errBuild)

	var count int
	require.NoError(t, conn.QueryRow(t.Context(), "SELECT count(*) FROM combat_match").Scan(&count))
	require.Equal(t, 1, count)
}
