package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/nerrad567/itemvault/internal/infrastructure/config"
	"github.com/nerrad567/itemvault/internal/infrastructure/database"
	"github.com/nerrad567/itemvault/migrations"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the SQLite schema",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply all pending migrations",
				Action: withDatabase(func(c *cli.Context, db *database.DB) error {
					if err := db.Migrate(c.Context, migrations.FS); err != nil {
						return fmt.Errorf("running migrations: %w", err)
					}
					fmt.Fprintln(c.App.Writer, "migrations applied")
					return nil
				}),
			},
			{
				Name:  "down",
				Usage: "Roll back the most recent migration",
				Action: withDatabase(func(c *cli.Context, db *database.DB) error {
					if err := db.MigrateDown(c.Context, migrations.FS); err != nil {
						return fmt.Errorf("rolling back migration: %w", err)
					}
					fmt.Fprintln(c.App.Writer, "rolled back one migration")
					return nil
				}),
			},
			{
				Name:   "status",
				Usage:  "List applied and pending migrations",
				Action: withDatabase(migrationStatus),
			},
		},
	}
}

// withDatabase loads the config and opens the SQLite database for fn.
// Migrations only apply to the sqlite backend.
func withDatabase(fn func(c *cli.Context, db *database.DB) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := config.Load(c.String("config"))
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if cfg.Storage.Backend != config.BackendSQLite {
			return fmt.Errorf("migrations need storage.backend %q, got %q", config.BackendSQLite, cfg.Storage.Backend)
		}

		db, err := database.Open(cfg.Database)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		return fn(c, db)
	}
}

func migrationStatus(c *cli.Context, db *database.DB) error {
	applied, pending, err := db.MigrationStatus(c.Context, migrations.FS)
	if err != nil {
		return fmt.Errorf("reading migration status: %w", err)
	}

	w := c.App.Writer
	for _, r := range applied {
		fmt.Fprintf(w, "applied  %s  %s\n", r.Version, r.AppliedAt.Format("2006-01-02 15:04:05"))
	}
	for _, m := range pending {
		fmt.Fprintf(w, "pending  %s  %s\n", m.Version, m.Name)
	}
	fmt.Fprintf(w, "%d applied, %d pending\n", len(applied), len(pending))
	return nil
}
