package cmd

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/signalcorps/beacon/internal/config"
	"github.com/signalcorps/beacon/internal/store/pg"
	"github.com/signalcorps/beacon/internal/store/sqlite"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration management",
	}
	cmd.AddCommand(migrateUpCmd())
	cmd.AddCommand(migrateStatusCmd())
	return cmd
}

// openForMigration connects to the configured backend without running
// migrations, so migrate subcommands control when they apply.
func openForMigration() (*sql.DB, string, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}

	if cfg.IsPostgres() {
		db, err := sql.Open("pgx", cfg.Database.PostgresDSN)
		if err != nil {
			return nil, "", fmt.Errorf("open postgres: %w", err)
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, "", fmt.Errorf("ping postgres: %w", err)
		}
		return db, "postgres", nil
	}

	db, err := sqlite.OpenRaw(config.ExpandHome(cfg.Database.SQLitePath))
	if err != nil {
		return nil, "", err
	}
	return db, "sqlite", nil
}

func migrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, driver, err := openForMigration()
			if err != nil {
				return err
			}
			defer db.Close()

			switch driver {
			case "postgres":
				err = pg.Migrate(db)
			default:
				err = sqlite.Migrate(db)
			}
			if err != nil {
				return err
			}
			slog.Info("migration complete", "driver", driver)
			return nil
		},
	}
}

func migrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, driver, err := openForMigration()
			if err != nil {
				return err
			}
			defer db.Close()

			var version uint
			var dirty bool
			switch driver {
			case "postgres":
				version, dirty, err = pg.MigrationVersion(db)
			default:
				version, dirty, err = sqlite.MigrationVersion(db)
			}
			if err != nil {
				return err
			}
			fmt.Printf("driver: %s, version: %d, dirty: %v\n", driver, version, dirty)
			return nil
		},
	}
}
