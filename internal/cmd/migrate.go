package cmd

import (
	"log/slog"

	"github.com/leighmacdonald/combatlog/internal/database"
	"github.com/leighmacdonald/combatlog/internal/log"
	"github.com/spf13/cobra"
)

// migrateCmd loads the db schema.
func migrateCmd() *cobra.Command {
	var (
		down bool
		one  bool
	)

	command := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, errApp := NewCombatLog()
			if errApp != nil {
				return errApp
			}

			act := migrationAction(down, one)

			if errMigrate := app.Migrate(cmd.Context(), act); errMigrate != nil {
				slog.Error("Could not migrate schema", log.ErrAttr(errMigrate))

				return errMigrate
			}

			slog.Info("Migration completed successfully", slog.Bool("down", down), slog.Bool("one", one),
				slog.String("driver", string(app.config.Database.Driver)))

			return nil
		},
	}

	command.Flags().BoolVarP(&down, "down", "d", false, "Fully reverts all migrations")
	command.Flags().BoolVarP(&one, "one", "1", false, "Only apply or revert a single revision")

	return command
}

func migrationAction(down bool, one bool) database.MigrationAction {
	switch {
	case down && one:
		return database.MigrateDownOne
	case down:
		return database.MigrateDn
	case one:
		return database.MigrateUpOne
	default:
		return database.MigrateUp
	}
}
