package cmd

import (
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command.
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Starts the combat log http service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			app, errApp := NewCombatLog()
			if errApp != nil {
				return errApp
			}

			defer app.Close()

			if errSetup := app.Init(ctx); errSetup != nil {
				return errSetup
			}

			return app.Serve(ctx)
		},
	}
}
