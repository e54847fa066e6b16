package match_test

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/leighmacdonald/combatlog/internal/database"
	"github.com/leighmacdonald/combatlog/internal/match"
	"github.com/leighmacdonald/combatlog/internal/tests"
	"github.com/leighmacdonald/combatlog/pkg/broadcaster"
	"github.com/leighmacdonald/combatlog/pkg/combatlog"
	"github.com/leighmacdonald/combatlog/pkg/zstd"
	"github.com/stretchr/testify/require"
)

var fixture *tests.Fixture //nolint:gochecknoglobals

func TestMain(m *testing.M) {
	fixture = tests.NewFixture()
	defer fixture.Close()

	m.Run()
}

func newMatches() match.Matches {
	return match.NewMatches(match.NewSQLiteRepository(fixture.Store), fixture.Parser, nil)
}

func newRouter(maxLogSize int64) *gin.Engine {
	router := fixture.CreateRouter()
	match.NewMatchHandler(router, newMatches(), maxLogSize)

	return router
}

func TestIngest(t *testing.T) {
	matches := newMatches()

	matchID, errIngest := matches.Ingest(t.Context(), tests.TestLog("combatlog.txt"))
	require.NoError(t, errIngest)
	require.Positive(t, matchID)

	kills, errKills := matches.HeroKills(t.Context(), matchID)
	require.NoError(t, errKills)
	require.Equal(t, []combatlog.HeroKills{
		{Hero: "abyssal_underlord", Kills: 1},
		{Hero: "mars", Kills: 2},
	}, kills)

	// Names are accepted with or without the hero prefix.
	for _, hero := range []string{"abyssal_underlord", "npc_dota_hero_abyssal_underlord"} {
		damage, errDamage := matches.HeroDamage(t.Context(), matchID, hero)
		require.NoError(t, errDamage)
		require.Equal(t, []combatlog.HeroDamage{
			{Target: "bloodseeker", DamageInstances: 2, TotalDamage: 38},
			{Target: "rubick", DamageInstances: 1, TotalDamage: 45},
		}, damage)
	}

	spells, errSpells := matches.HeroSpells(t.Context(), matchID, "snapfire")
	require.NoError(t, errSpells)
	require.Equal(t, []combatlog.HeroSpells{{Spell: "snapfire_scatterblast", Casts: 1}}, spells)

	items, errItems := matches.HeroItems(t.Context(), matchID, "snapfire")
	require.NoError(t, errItems)
	require.Equal(t, []combatlog.HeroItem{
		{Item: "clarity", Timestamp: 8043},
		{Item: "faerie_fire", Timestamp: 8043},
	}, items)

	summary, errSummary := matches.Summary(t.Context(), matchID)
	require.NoError(t, errSummary)
	require.Equal(t, combatlog.Stats{Lines: 14, Events: 13, Ignored: 1}, summary.Stats)
	require.Equal(t, map[string]int{
		"HERO_KILLED":    3,
		"ITEM_PURCHASED": 3,
		"SPELL_CAST":     3,
		"DAMAGE_DONE":    4,
	}, summary.Counts)
}

func TestIngestEmpty(t *testing.T) {
	events := broadcaster.New[match.EventType, match.IngestEvent]()
	rejected := make(chan match.IngestEvent, 1)
	require.NoError(t, events.Consume(rejected, match.MatchRejected))

	matches := match.NewMatches(match.NewSQLiteRepository(fixture.Store), fixture.Parser, events)

	_, errIngest := matches.Ingest(t.Context(), "no keywords here\n\n[00:00:01.000] game over")
	require.ErrorIs(t, errIngest, combatlog.ErrEmptyLog)
	require.ErrorIs(t, (<-rejected).Err, combatlog.ErrEmptyLog)
}

func TestIngestBroadcast(t *testing.T) {
	events := broadcaster.New[match.EventType, match.IngestEvent]()
	ingested := make(chan match.IngestEvent, 1)
	require.NoError(t, events.Consume(ingested, match.MatchIngested))

	matches := match.NewMatches(match.NewSQLiteRepository(fixture.Store), fixture.Parser, events)

	matchID, errIngest := matches.Ingest(t.Context(), tests.TestLog("combatlog.txt"))
	require.NoError(t, errIngest)

	event := <-ingested
	require.Equal(t, matchID, event.MatchID)
	require.Len(t, event.Entries, 13)

	for _, entry := range event.Entries {
		require.Equal(t, matchID, entry.MatchID)
	}
}

func TestBuildFailureRollsBack(t *testing.T) {
	fixture.Reset(t.Context())

	repo := match.NewSQLiteRepository(fixture.Store)
	errBuild := errors.New("build failed")

	_, errSave := repo.SaveMatch(t.Context(), func(_ int64) ([]combatlog.Entry, combatlog.Stats, error) {
		return nil, combatlog.Stats{}, errBuild
	})
	require.ErrorIs(t, errSave, errBuild)
	require.ErrorIs(t, errSave, match.ErrSaveMatch)

	var count int
	require.NoError(t, fixture.Store.DB().QueryRowContext(t.Context(), "SELECT count(*) FROM combat_match").Scan(&count))
	require.Zero(t, count)
}

func TestUnknownMatch(t *testing.T) {
	matches := newMatches()

	kills, errKills := matches.HeroKills(t.Context(), 999999)
	require.NoError(t, errKills)
	require.Empty(t, kills)

	items, errItems := matches.HeroItems(t.Context(), 999999, "mars")
	require.NoError(t, errItems)
	require.Empty(t, items)

	_, errSummary := matches.Summary(t.Context(), 999999)
	require.ErrorIs(t, errSummary, database.ErrNoResult)
}

func TestSaveLargeMatch(t *testing.T) {
	var builder strings.Builder
	for idx := range 1234 {
		fmt.Fprintf(&builder, "[00:%02d:%02d.%03d] npc_dota_hero_mars hits npc_dota_hero_rubick with mars_spear for 1 damage\n",
			(idx/60)%60, idx%60, idx%1000)
	}

	matches := newMatches()

	matchID, errIngest := matches.Ingest(t.Context(), builder.String())
	require.NoError(t, errIngest)

	damage, errDamage := matches.HeroDamage(t.Context(), matchID, "mars")
	require.NoError(t, errDamage)
	require.Equal(t, []combatlog.HeroDamage{{Target: "rubick", DamageInstances: 1234, TotalDamage: 1234}}, damage)
}

func TestMatchHTTP(t *testing.T) {
	router := newRouter(1 << 20)

	var matchID int64
	tests.PostCreated(t, router, "/api/match", tests.TestLog("combatlog.txt"), &matchID)
	require.Positive(t, matchID)

	var kills []combatlog.HeroKills
	tests.GetOK(t, router, fmt.Sprintf("/api/match/%d", matchID), &kills)
	require.Len(t, kills, 2)

	var items []combatlog.HeroItem
	tests.GetOK(t, router, fmt.Sprintf("/api/match/%d/mars/items", matchID), &items)
	require.Equal(t, []combatlog.HeroItem{{Item: "tango", Timestamp: 9120}}, items)

	var spells []combatlog.HeroSpells
	tests.GetOK(t, router, fmt.Sprintf("/api/match/%d/npc_dota_hero_pangolier/spells", matchID), &spells)
	require.Equal(t, []combatlog.HeroSpells{{Spell: "pangolier_swashbuckle", Casts: 1}}, spells)

	var damage []combatlog.HeroDamage
	tests.GetOK(t, router, fmt.Sprintf("/api/match/%d/mars/damage", matchID), &damage)
	require.Equal(t, []combatlog.HeroDamage{{Target: "npc_dota_goodguys_tower1_mid", DamageInstances: 1, TotalDamage: 61}}, damage)

	var summary match.Summary
	tests.GetOK(t, router, fmt.Sprintf("/api/match/%d/summary", matchID), &summary)
	require.Equal(t, matchID, summary.MatchID)
	require.Equal(t, 13, summary.Stats.Events)

	// Unknown hero or match yields an empty list.
	var unknown []combatlog.HeroItem
	tests.GetOK(t, router, fmt.Sprintf("/api/match/%d/crystal_maiden/items", matchID), &unknown)
	require.Empty(t, unknown)
	require.NotNil(t, unknown)

	tests.GetOK(t, router, "/api/match/999999", &kills)
	require.Empty(t, kills)

	tests.GetNotFound(t, router, "/api/match/999999/summary")
	tests.GetBadRequest(t, router, "/api/match/abc")
}

func TestMatchHTTPCompressed(t *testing.T) {
	router := newRouter(1 << 20)

	var matchID int64
	tests.PostCreated(t, router, "/api/match", zstd.Compress([]byte(tests.TestLog("combatlog.txt"))), &matchID)
	require.Positive(t, matchID)
}

func TestMatchHTTPRejected(t *testing.T) {
	router := newRouter(256)

	tests.PostStatus(t, router, "/api/match", "nothing to see", http.StatusBadRequest)
	tests.PostStatus(t, router, "/api/match", "", http.StatusBadRequest)
	tests.PostStatus(t, router, "/api/match", strings.Repeat("npc_dota_hero_mars buys item item_tango\n", 20),
		http.StatusRequestEntityTooLarge)
	tests.PostStatus(t, router, "/api/match", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d},
		http.StatusUnsupportedMediaType)
}

func TestMatchList(t *testing.T) {
	fixture.Reset(t.Context())

	matches := newMatches()
	router := newRouter(1 << 20)

	firstID, errFirst := matches.Ingest(t.Context(), tests.TestLog("combatlog.txt"))
	require.NoError(t, errFirst)

	secondID, errSecond := matches.Ingest(t.Context(), "[00:00:01.000] npc_dota_hero_mars buys item item_tango")
	require.NoError(t, errSecond)

	var newest []match.Info
	tests.GetOK(t, router, "/api/matches", &newest)
	require.Len(t, newest, 2)
	require.Equal(t, secondID, newest[0].MatchID)
	require.Equal(t, 1, newest[0].Stats.Events)
	require.Equal(t, firstID, newest[1].MatchID)
	require.Equal(t, 13, newest[1].Stats.Events)

	var oldest []match.Info
	tests.GetOK(t, router, "/api/matches?desc=false&limit=1", &oldest)
	require.Len(t, oldest, 1)
	require.Equal(t, firstID, oldest[0].MatchID)

	var paged []match.Info
	tests.GetOK(t, router, "/api/matches?order_by=events&limit=1&offset=1", &paged)
	require.Len(t, paged, 1)
	require.Equal(t, secondID, paged[0].MatchID)

	tests.GetBadRequest(t, router, "/api/matches?limit=many")
}
