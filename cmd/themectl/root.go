package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/themeindex/internal/catalog"
	"github.com/dgallion1/themeindex/internal/config"
)

var (
	envFile      string
	outputFormat string
	verbose      bool
	strict       bool

	cfg config.Config
	log *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "themectl",
	Short: "Segment textbooks into themes and query the theme catalog",
	Long: `themectl runs the themeindex pipeline from the command line.

It can segment a single document without storing anything, ingest one or
both language editions of a book into the catalog, search the catalog,
pair uz/ru editions found on disk and cut page ranges out of PDFs.

Catalog commands use DATABASE_URL; without it they work on an in-memory
catalog that lives for the duration of the command.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "env file to load before reading the environment")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "yaml", "output format: yaml or json")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "use the strict heading classifier")

	rootCmd.SilenceUsage = true
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := setOutputFormat(outputFormat); err != nil {
			return err
		}
		var err error
		if cfg, err = config.Load(envFile); err != nil {
			return err
		}
		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		if strict {
			cfg.StrictHeadings = true
		}
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		return nil
	}

	rootCmd.AddCommand(segmentCmd, ingestCmd, searchCmd, pairCmd, exportCmd, migrateCmd, versionCmd)
}

// openCatalog connects to Postgres when DATABASE_URL is set and falls back
// to an in-memory catalog otherwise.
func openCatalog(ctx context.Context) (catalog.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory catalog")
		return catalog.NewMemoryStore(), func() {}, nil
	}
	pool, err := catalog.NewPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return nil, nil, fmt.Errorf("open catalog: %w", err)
	}
	return catalog.NewPostgresStore(pool), pool.Close, nil
}
