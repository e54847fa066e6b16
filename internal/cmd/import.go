package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leighmacdonald/combatlog/internal/log"
	"github.com/leighmacdonald/combatlog/pkg/zstd"
	"github.com/spf13/cobra"
	"github.com/viant/afs"
)

var errReadLog = errors.New("failed to read combat log")

// readLog loads a combat log from a local path or any url scheme supported by afs. Compressed logs
// are detected by extension or frame magic.
func readLog(ctx context.Context, location string) (string, error) {
	body, errDownload := afs.New().DownloadWithURL(ctx, location)
	if errDownload != nil {
		return "", errors.Join(errDownload, errReadLog)
	}

	if zstd.HasExtension(location) || zstd.IsCompressed(body) {
		decompressed, errDecompress := zstd.Decompress(body)
		if errDecompress != nil {
			return "", errors.Join(errDecompress, errReadLog)
		}

		body = decompressed
	}

	return string(body), nil
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <path|url>",
		Short: "Parse a combat log and store it as a new match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, errApp := NewCombatLog()
			if errApp != nil {
				return errApp
			}

			defer app.Close()

			if errSetup := app.Init(ctx); errSetup != nil {
				return errSetup
			}

			raw, errRead := readLog(ctx, args[0])
			if errRead != nil {
				slog.Error("Could not read combat log", log.ErrAttr(errRead), slog.String("location", args[0]))

				return errRead
			}

			matchID, errIngest := app.matches.Ingest(ctx, raw)
			if errIngest != nil {
				slog.Error("Could not import combat log", log.ErrAttr(errIngest))

				return errIngest
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), matchID)

			return nil
		},
	}
}
