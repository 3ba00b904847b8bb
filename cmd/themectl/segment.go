package main

import (
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/dgallion1/themeindex/internal/bookmeta"
	"github.com/dgallion1/themeindex/internal/catalog"
	"github.com/dgallion1/themeindex/internal/pipeline"
)

var (
	segmentLang   string
	segmentBodies bool
)

type sectionView struct {
	Title     string `json:"title" yaml:"title"`
	StartPage int    `json:"start_page" yaml:"start_page"`
	EndPage   int    `json:"end_page" yaml:"end_page"`
	Source    string `json:"source" yaml:"source"`
	Chars     int    `json:"chars" yaml:"chars"`
	Body      string `json:"body,omitempty" yaml:"body,omitempty"`
}

type segmentView struct {
	File       string        `json:"file" yaml:"file"`
	Lang       catalog.Lang  `json:"lang" yaml:"lang"`
	Pages      int           `json:"pages" yaml:"pages"`
	Strategy   string        `json:"strategy" yaml:"strategy"`
	Candidates int           `json:"candidates" yaml:"candidates"`
	Dropped    int           `json:"dropped" yaml:"dropped"`
	Meta       bookmeta.Meta `json:"meta" yaml:"meta"`
	Sections   []sectionView `json:"sections" yaml:"sections"`
}

var segmentCmd = &cobra.Command{
	Use:   "segment FILE",
	Short: "Segment a document into themes without storing them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, err := catalog.ParseLang(segmentLang)
		if err != nil {
			return err
		}
		proc := pipeline.NewProcessor(cfg.Segment(), cfg.Gate(), cfg.Parser(), log)
		seg, err := proc.ProcessFile(args[0], lang)
		if err != nil {
			return err
		}

		view := segmentView{
			File:       seg.Filename,
			Lang:       seg.Lang,
			Pages:      seg.PageCount,
			Strategy:   seg.Strategy.String(),
			Candidates: len(seg.Candidates),
			Dropped:    seg.Dropped,
			Meta:       seg.Meta,
			Sections:   make([]sectionView, 0, len(seg.Sections)),
		}
		for _, s := range seg.Sections {
			sv := sectionView{
				Title:     s.Title,
				StartPage: s.StartPage,
				EndPage:   s.EndPage,
				Source:    string(s.Source),
				Chars:     utf8.RuneCountInString(s.Body),
			}
			if segmentBodies {
				sv.Body = s.Body
			}
			view.Sections = append(view.Sections, sv)
		}
		return output(view)
	},
}

func init() {
	segmentCmd.Flags().StringVar(&segmentLang, "lang", "uz", "edition language: uz or ru")
	segmentCmd.Flags().BoolVar(&segmentBodies, "bodies", false, "include section bodies in the output")
}
