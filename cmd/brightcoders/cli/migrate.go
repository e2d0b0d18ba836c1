package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brightcoderske/Bright-Coders-Website/internal/config"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long:  "Apply, roll back or inspect the embedded schema migrations.",
	}

	cmd.PersistentFlags().String("driver", "", "database driver: pgx or sqlite")
	cmd.PersistentFlags().String("dsn", "", "Postgres connection string")

	cmd.AddCommand(newMigrateUpCmd())
	cmd.AddCommand(newMigrateDownCmd())
	cmd.AddCommand(newMigrateVersionCmd())

	return cmd
}

// ---------- migrate up ----------

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(store *config.Store) error {
				// Opening the store already migrated it; report where it ended up.
				return printVersion(cmd, store)
			})
		},
	}
}

// ---------- migrate down ----------

func newMigrateDownCmd() *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			return withStore(func(store *config.Store) error {
				if err := store.MigrateDown(steps); err != nil {
					return err
				}
				return printVersion(cmd, store)
			})
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")

	return cmd
}

// ---------- migrate version ----------

func newMigrateVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(store *config.Store) error {
				return printVersion(cmd, store)
			})
		},
	}
}

func printVersion(cmd *cobra.Command, store *config.Store) error {
	version, dirty, err := store.MigrationVersion()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	state := "clean"
	if dirty {
		state = "dirty"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (%s, %s)\n", version, state, store.Driver())
	return nil
}

// withStore opens the configured database for the duration of fn.
func withStore(fn func(*config.Store) error) error {
	s, err := settings()
	if err != nil {
		return err
	}
	store, err := openStore(s)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()
	return fn(store)
}
