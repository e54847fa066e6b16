package combatlog_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/leighmacdonald/combatlog/pkg/combatlog"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	parser := newParser(combatlog.Options{})

	entries, stats, errBuild := parser.Parse(readTestLog(t), 42)
	require.NoError(t, errBuild)
	require.Len(t, entries, 13)
	require.Equal(t, combatlog.Stats{Lines: 14, Events: 13, Ignored: 1}, stats)

	for _, entry := range entries {
		require.Equal(t, int64(42), entry.MatchID)
		require.NotEqual(t, combatlog.UnknownKind, entry.Kind())
	}

	// Source order is kept.
	require.Equal(t, combatlog.ItemPurchasedEvt{Actor: "snapfire", Item: "clarity"}, entries[0].Event)
	require.Equal(t, combatlog.SpellCastEvt{Actor: "snapfire", Ability: "snapfire_scatterblast", Level: 2}, entries[12].Event)
}

func TestBuildEmpty(t *testing.T) {
	parser := newParser(combatlog.Options{})

	_, _, errEmpty := parser.Build(nil, 1)
	require.ErrorIs(t, errEmpty, combatlog.ErrEmptyLog)

	_, _, errNoKeywords := parser.Parse("~~ \n nothing to see ~", 1)
	require.ErrorIs(t, errNoKeywords, combatlog.ErrEmptyLog)

	entries, stats, errCreepsOnly := parser.Parse("npc_dota_creep_badguys_ranged is killed by npc_dota_hero_axe~", 1)
	require.NoError(t, errCreepsOnly)
	require.Empty(t, entries)
	require.Equal(t, 1, stats.Ignored)
}

func TestBuildEndToEnd(t *testing.T) {
	parser := newParser(combatlog.Options{})

	entries, _, errBuild := parser.Parse("hero_a casts ability nova lvl 2 at 00 01 02 003~", 7)
	require.NoError(t, errBuild)
	require.Equal(t, []combatlog.Entry{{
		MatchID:   7,
		Timestamp: 62_003,
		Event:     combatlog.SpellCastEvt{Actor: "hero_a", Ability: "nova", Level: 2},
	}}, entries)
}

func TestBuildMalformedSkipped(t *testing.T) {
	parser := newParser(combatlog.Options{})

	raw := "axe hits lina with cleave for 99999999999999999999 damage~[00:00:01.000] axe hits lina with cleave for 12 damage"

	entries, stats, errBuild := parser.Parse(raw, 3)
	require.NoError(t, errBuild)
	require.Len(t, entries, 1)
	require.Equal(t, 1, stats.Malformed)
	require.Equal(t, int64(1_000), entries[0].Timestamp)
}

func TestBuildDedup(t *testing.T) {
	raw := strings.Repeat("[00:03:40.002] npc_dota_hero_bloodseeker is killed by npc_dota_hero_mars~", 3) +
		"[00:03:41.002] npc_dota_hero_rubick is killed by npc_dota_hero_mars~"

	entries, stats, errBuild := newParser(combatlog.Options{}).Parse(raw, 1)
	require.NoError(t, errBuild)
	require.Len(t, entries, 4)
	require.Zero(t, stats.Duplicates)

	legacy, legacyStats, errLegacy := newParser(combatlog.Options{Dedup: combatlog.DedupLegacy}).Parse(raw, 1)
	require.NoError(t, errLegacy)
	require.Len(t, legacy, 2)
	require.Equal(t, 2, legacyStats.Duplicates)
	require.Equal(t, 2, legacyStats.Events)
	require.Equal(t, "bloodseeker", legacy[0].Event.(combatlog.HeroKilledEvt).Target) //nolint:forcetypeassert
	require.Equal(t, "rubick", legacy[1].Event.(combatlog.HeroKilledEvt).Target)      //nolint:forcetypeassert
}

func TestBuildPartitionedOrder(t *testing.T) {
	const total = 2_000

	lines := make([]string, total)
	for idx := range lines {
		lines[idx] = fmt.Sprintf("hero_%d buys item item_%d at 00 00 00 %03d", idx, idx, idx%1000)
	}

	parser := newParser(combatlog.Options{Workers: 4})

	entries, stats, errBuild := parser.Build(lines, 9)
	require.NoError(t, errBuild)
	require.Len(t, entries, total)
	require.Equal(t, total, stats.Lines)

	for idx, entry := range entries {
		require.Equal(t, fmt.Sprintf("hero_%d", idx), entry.Actor())
	}
}
