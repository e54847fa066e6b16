package cmd

import (
	"testing"

	"github.com/leighmacdonald/combatlog/internal/database"
	"github.com/stretchr/testify/require"
)

func TestMigrationAction(t *testing.T) {
	t.Parallel()

	require.Equal(t, database.MigrateUp, migrationAction(false, false))
	require.Equal(t, database.MigrateUpOne, migrationAction(false, true))
	require.Equal(t, database.MigrateDn, migrationAction(true, false))
	require.Equal(t, database.MigrateDownOne, migrationAction(true, true))
}
