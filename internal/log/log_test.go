package log_test

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/leighmacdonald/combatlog/internal/log"
	"github.com/stretchr/testify/require"
)

func TestToSlogLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, log.ToSlogLevel(log.Debug))
	require.Equal(t, slog.LevelInfo, log.ToSlogLevel(log.Info))
	require.Equal(t, slog.LevelWarn, log.ToSlogLevel(log.Warn))
	require.Equal(t, slog.LevelError, log.ToSlogLevel(log.Error))
	require.Equal(t, slog.LevelError, log.ToSlogLevel("bogus"))
}

func TestMustCreateLogger(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	logPath := filepath.Join(t.TempDir(), "combatlog.log")
	closer := log.MustCreateLogger(t.Context(), logPath, log.Info, false, "test")

	slog.Debug("hidden")
	slog.Info("visible", log.ErrAttr(errors.New("boom")))
	closer()

	body, errRead := os.ReadFile(logPath)
	require.NoError(t, errRead)
	require.Contains(t, string(body), "visible")
	require.Contains(t, string(body), "boom")
	require.NotContains(t, string(body), "hidden")
}
