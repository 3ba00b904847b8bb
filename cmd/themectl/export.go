package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/themeindex/internal/parser"
)

var (
	exportFrom int
	exportTo   int
	exportOut  string
)

var exportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Write a page range of a PDF to a new PDF",
	Long: `export copies pages --from through --to (0-indexed, inclusive, the same
numbering themes use) of FILE into --out.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportOut == "" {
			return errors.New("--out is required")
		}
		if exportTo < 0 {
			exportTo = exportFrom
		}
		src, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer src.Close()

		dst, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		if err := parser.ExtractPages(src, dst, exportFrom, exportTo); err != nil {
			dst.Close()
			os.Remove(exportOut)
			return err
		}
		if err := dst.Close(); err != nil {
			return err
		}
		return output(map[string]any{
			"source": args[0],
			"out":    exportOut,
			"pages":  fmt.Sprintf("%d-%d", exportFrom, exportTo),
		})
	},
}

func init() {
	exportCmd.Flags().IntVar(&exportFrom, "from", 0, "first page, 0-indexed")
	exportCmd.Flags().IntVar(&exportTo, "to", -1, "last page, inclusive (default: --from)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output PDF path")
}
