package zstd_test

import (
	"testing"

	"github.com/leighmacdonald/combatlog/pkg/zstd"
	"github.com/stretchr/testify/require"
)

func TestMaybeDecompress(t *testing.T) {
	raw := []byte("[00:00:10.001] npc_dota_hero_mars buys item item_tango\n")
	compressed := zstd.Compress(raw)

	require.True(t, zstd.IsCompressed(compressed))
	require.False(t, zstd.IsCompressed(raw))

	out, errOut := zstd.MaybeDecompress(compressed)
	require.NoError(t, errOut)
	require.Equal(t, raw, out)

	plain, errPlain := zstd.MaybeDecompress(raw)
	require.NoError(t, errPlain)
	require.Equal(t, raw, plain)
}

func TestDecompressCorrupt(t *testing.T) {
	compressed := zstd.Compress([]byte("combat log"))

	_, errDecompress := zstd.Decompress(compressed[:len(compressed)-2])
	require.ErrorIs(t, errDecompress, zstd.ErrDecompress)
}

func TestHasExtension(t *testing.T) {
	require.True(t, zstd.HasExtension("match.txt.zst"))
	require.True(t, zstd.HasExtension("MATCH.ZSTD"))
	require.False(t, zstd.HasExtension("match.txt"))
}
