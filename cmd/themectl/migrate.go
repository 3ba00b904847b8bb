package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dgallion1/themeindex/internal/catalog"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply catalog schema migrations to DATABASE_URL",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required")
		}
		if err := catalog.Migrate(cfg.DatabaseURL, log); err != nil {
			return err
		}
		return output(map[string]string{"status": "up to date"})
	},
}
