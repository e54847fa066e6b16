package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/leighmacdonald/combatlog/internal/tests"
	"github.com/leighmacdonald/combatlog/pkg/combatlog"
	"github.com/leighmacdonald/combatlog/pkg/zstd"
	"github.com/stretchr/testify/require"
)

func TestBuildReport(t *testing.T) {
	t.Parallel()

	parser := combatlog.New(combatlog.DefaultKeywords(), combatlog.Options{})

	result, errReport := buildReport(parser, tests.TestLog("combatlog.txt"), "npc_dota_hero_snapfire")
	require.NoError(t, errReport)
	require.Equal(t, 13, result.stats.Events)
	require.Len(t, result.items, 2)
	require.Equal(t, []combatlog.HeroSpells{{Spell: "snapfire_scatterblast", Casts: 1}}, result.spells)

	var out bytes.Buffer
	require.NoError(t, result.render(&out, "snapfire"))
	require.Contains(t, out.String(), "snapfire_scatterblast")
	require.Contains(t, out.String(), "8,043")
}

func TestBuildReportNoHero(t *testing.T) {
	t.Parallel()

	parser := combatlog.New(combatlog.DefaultKeywords(), combatlog.Options{})

	result, errReport := buildReport(parser, tests.TestLog("combatlog.txt"), "")
	require.NoError(t, errReport)
	require.Len(t, result.kills, 2)
	require.Empty(t, result.items)
	require.Empty(t, result.damage)
}

func TestReadLogCompressed(t *testing.T) {
	t.Parallel()

	raw := tests.TestLog("combatlog.txt")

	compressed := zstd.Compress([]byte(raw))

	dir := t.TempDir()
	plainPath := filepath.Join(dir, "match.txt")
	packedPath := filepath.Join(dir, "match.txt.zst")

	require.NoError(t, os.WriteFile(plainPath, []byte(raw), 0o600))
	require.NoError(t, os.WriteFile(packedPath, compressed, 0o600))

	plain, errPlain := readLog(t.Context(), plainPath)
	require.NoError(t, errPlain)
	require.Equal(t, raw, plain)

	unpacked, errUnpacked := readLog(t.Context(), packedPath)
	require.NoError(t, errUnpacked)
	require.Equal(t, raw, unpacked)
}
