package cmd

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autopec/garage/internal/config"
	"github.com/autopec/garage/internal/db"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the repairs schema",
	}

	cmd.AddCommand(
		migrateAction("up", "Apply all pending migrations", db.RunMigrations),
		migrateAction("down", "Roll back the most recent migration", db.MigrateDown),
		migrateAction("status", "Show applied and pending migrations", db.MigrationStatus),
	)
	return cmd
}

func migrateAction(use, short string, run func(*sql.DB, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			driver, conn := config.Database()
			database, err := db.Init(driver, conn)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer func() { _ = db.Close(database) }()

			return run(database.DB, driver)
		},
	}
}
