// Package cmd implements the CLI (Command Line Interface) of the application.
//
// import - Parse a combat log and store it as a new match
// migrate - Initiate a database migration manually
// parse - Parse a combat log offline and print the aggregated tables
// serve - The main application service entry point
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string //nolint:gochecknoglobals

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:           "combatlog",
	Short:         "Dota 2 combat log ingestion and aggregation service",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	setupCLI()

	if errExecute := rootCmd.Execute(); errExecute != nil {
		os.Exit(1)
	}
}

func setupCLI() {
	if BuildVersion == "" {
		BuildVersion = "master"
	}

	rootCmd.Version = BuildVersion
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./combatlog.yml or $HOME/combatlog.yml)")
}
