package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/diewo77/bakery-pos/internal/db"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	envFile    string
	confirmYes bool
)

// rootCmd serves the application when no subcommand is given.
var rootCmd = &cobra.Command{
	Use:   "panaderia",
	Short: "Bakery point of sale and back office",
	Long: `Point of sale and back office for a bakery: catalog, sales with
printable receipts, reports and user administration.

Without a subcommand the HTTP server is started.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(_ *cobra.Command, _ []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		if err := a.prepareSchema(); err != nil {
			return err
		}
		log.Info().Msg("migrations completed successfully")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo data set (idempotent) and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		if err := a.prepareSchema(); err != nil {
			return err
		}
		if err := db.Seed(cmd.Context(), a.conn); err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}
		log.Info().Str("username", db.DemoAdminUsername).Msg("seeding completed successfully")
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset-db",
	Short: "Drop every table, recreate the schema and reseed (destroys all data)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !confirmYes {
			return errors.New("reset-db destroys all data; run again with --yes to confirm")
		}
		a, err := bootstrap()
		if err != nil {
			return err
		}
		log.Warn().Str("driver", a.cfg.Database.Driver).Msg("resetting database")
		if err := db.Reset(a.conn); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}
		if err := db.Seed(cmd.Context(), a.conn); err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}
		log.Info().Msg("database reset completed")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before reading configuration")
	resetCmd.Flags().BoolVar(&confirmYes, "yes", false, "Confirm that all data may be destroyed")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, resetCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
