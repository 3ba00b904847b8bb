package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/themeindex/internal/blobstore"
	"github.com/dgallion1/themeindex/internal/catalog"
	"github.com/dgallion1/themeindex/internal/pipeline"
)

var (
	ingestUz      string
	ingestRu      string
	ingestBookID  string
	ingestSubject string
	ingestGrade   int
	ingestReplace bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Segment one or both editions of a book and store the themes",
	Example: `  themectl ingest --uz uzbek/fizika_7_sinf.pdf --ru russian/fizika_7_klass.pdf
  themectl ingest --ru books/ru/history.pdf --book-id 0193... --replace`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if ingestUz == "" && ingestRu == "" {
			return errors.New("at least one of --uz or --ru is required")
		}
		if ingestGrade < 0 || ingestGrade > 11 {
			return errors.New("--grade must be between 1 and 11")
		}

		var editions []pipeline.Edition
		for _, lang := range catalog.Langs {
			path := ingestUz
			if lang == catalog.LangRu {
				path = ingestRu
			}
			if path == "" {
				continue
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s edition: %w", lang, err)
			}
			// The full path lets subject detection see the parent folder.
			editions = append(editions, pipeline.NewUploadEdition(lang, filepath.Clean(path), data))
		}

		policy := pipeline.PolicySkip
		if ingestReplace {
			policy = pipeline.PolicyReplace
		}
		job := pipeline.NewJob(ingestBookID, policy, editions...)
		job.Subject = ingestSubject
		job.Grade = ingestGrade
		if err := job.Validate(); err != nil {
			return err
		}

		ctx := cmd.Context()
		store, closeStore, err := openCatalog(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		var blobs pipeline.BlobStore
		if cfg.BlobBaseURL != "" {
			bc := blobstore.NewClient(cfg.BlobBaseURL, cfg.BlobAPIKey)
			defer bc.Close()
			blobs = bc
		}

		proc := pipeline.NewProcessor(cfg.Segment(), cfg.Gate(), cfg.Parser(), log)
		pipeline.NewWorker(proc, store, blobs, nil, log, cfg.MaxUploadBytes).Process(ctx, job)

		snap := job.Snapshot()
		if err := output(snap); err != nil {
			return err
		}
		if snap.Status == pipeline.StatusFailed {
			return fmt.Errorf("ingest failed")
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestUz, "uz", "", "Uzbek edition file")
	ingestCmd.Flags().StringVar(&ingestRu, "ru", "", "Russian edition file")
	ingestCmd.Flags().StringVar(&ingestBookID, "book-id", "", "existing or new book ID (default: new)")
	ingestCmd.Flags().StringVar(&ingestSubject, "subject", "", "subject code (default: inferred from the path)")
	ingestCmd.Flags().IntVar(&ingestGrade, "grade", 0, "grade 1-11 (default: inferred from the file name)")
	ingestCmd.Flags().BoolVar(&ingestReplace, "replace", false, "replace the book's existing themes")
}
