package main

import (
	"github.com/spf13/cobra"

	"github.com/dgallion1/themeindex/internal/bookmeta"
)

var pairCompleteOnly bool

var pairCmd = &cobra.Command{
	Use:   "pair DIR",
	Short: "Pair uz and ru editions found under DIR by subject and grade",
	Long: `pair walks the uzbek/ (or uz/) and russian/ (or ru/) folders under DIR
and groups their files by detected subject and grade. Each complete pair
can be passed to "themectl ingest --uz ... --ru ...".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs, err := bookmeta.PairEditions(args[0])
		if err != nil {
			return err
		}
		if pairCompleteOnly {
			kept := pairs[:0]
			for _, p := range pairs {
				if p.Complete() {
					kept = append(kept, p)
				}
			}
			pairs = kept
		}
		if pairs == nil {
			pairs = []bookmeta.Pair{}
		}
		return output(pairs)
	},
}

func init() {
	pairCmd.Flags().BoolVar(&pairCompleteOnly, "complete", false, "only list subjects with both editions")
}
