package commands

import (
	"fmt"
	"log/slog"

	"hearthstats/internal/db"
	"hearthstats/pkg/migrations"

	"github.com/spf13/cobra"
)

var migrateDown int

var migrateCmd = &cobra.Command{
	Use:   "migrate [--down <steps>]",
	Short: "Applies pending schema migrations, or rolls them back with --down.",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := migrations.OpenDB(cfg.Database.File)
		if err != nil {
			return err
		}
		defer database.Close()

		if cmd.Flags().Changed("down") {
			err = migrations.Down(database, db.Migrations, migrateDown)
		} else {
			err = migrations.Up(database, db.Migrations)
		}
		if err != nil {
			return err
		}

		version, dirty, err := migrations.Version(database, db.Migrations)
		if err != nil {
			return err
		}
		if dirty {
			return fmt.Errorf("schema version %d is dirty", version)
		}
		slog.Info("schema migrated", "db", cfg.Database.File, "version", version)
		return nil
	},
}

func init() {
	migrateCmd.Flags().IntVar(&migrateDown, "down", 0, "Roll back this many migrations, 0 rolls back all of them.")
	migrateCmd.Flags().Lookup("down").NoOptDefVal = "0"
	rootCmd.AddCommand(migrateCmd)
}
