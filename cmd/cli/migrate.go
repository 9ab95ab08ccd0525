package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskbridge/taskbridge/internal/config"
	"github.com/taskbridge/taskbridge/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit.",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		// NewDatabase applies migrations as part of connecting.
		_, cleanup, err := db.NewDatabase(cfg.Database)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		cleanup()
		fmt.Println("migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
