package cli

import (
	"github.com/Eursukkul/consultation-service/pkg/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the consultations table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg.Environment)

		db, err := database.NewPostgresDB(cfg.DSN())
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Info("migration complete", "db", cfg.DBName)
		return nil
	},
}
