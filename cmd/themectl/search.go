package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/themeindex/internal/search"
)

var searchQuery search.Query

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Search theme titles and bodies in the catalog",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, closeStore, err := openCatalog(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		q := searchQuery
		q.Text = strings.Join(args, " ")
		page, err := search.NewEngine(store).Search(ctx, q)
		if err != nil {
			return err
		}
		return output(page)
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchQuery.Limit, "limit", search.DefaultLimit, "results per page (max 50)")
	searchCmd.Flags().IntVar(&searchQuery.Offset, "offset", 0, "results to skip")
	searchCmd.Flags().IntVar(&searchQuery.Grade, "grade", 0, "only books of this grade")
	searchCmd.Flags().StringVar(&searchQuery.Subject, "subject", "", "only books whose subject contains this")
}
