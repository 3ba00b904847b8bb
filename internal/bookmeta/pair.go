package bookmeta

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/dgallion1/themeindex/internal/catalog"
	"github.com/dgallion1/themeindex/internal/parser"
)

// editionDirs lists edition directory names with their language.
var editionDirs = []struct {
	name string
	lang catalog.Lang
}{
	{"uzbek", catalog.LangUz},
	{"uz", catalog.LangUz},
	{"russian", catalog.LangRu},
	{"ru", catalog.LangRu},
}

// Pair is one book with the files of its editions. A side is empty when
// that edition was not found.
type Pair struct {
	Subject string `json:"subject"`
	Grade   int    `json:"grade"`
	Uz      string `json:"uz,omitempty"`
	Ru      string `json:"ru,omitempty"`
	// Extra lists further files that mapped to the same book.
	Extra []string `json:"extra,omitempty"`
}

// Complete reports whether both editions are present.
func (p Pair) Complete() bool { return p.Uz != "" && p.Ru != "" }

type pairKey struct {
	subject string
	grade   int
}

// PairEditions scans the edition directories under root and pairs
// documents by subject and grade. Files are visited in lexical order, so
// the first file for a book in each edition wins.
func PairEditions(root string) ([]Pair, error) {
	pairs := make(map[pairKey]*Pair)
	found := false

	for _, ed := range editionDirs {
		lang := ed.lang
		base := filepath.Join(root, ed.name)
		info, err := os.Stat(base)
		if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.IsDir()) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", base, err)
		}
		found = true

		err = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !parser.IsSupportedExtension(path) {
				return nil
			}
			key := pairKey{subject: DetectSubject(path), grade: DetectGrade(path)}
			p, ok := pairs[key]
			if !ok {
				p = &Pair{Subject: key.subject, Grade: key.grade}
				pairs[key] = p
			}
			slot := &p.Uz
			if lang == catalog.LangRu {
				slot = &p.Ru
			}
			if *slot == "" {
				*slot = path
			} else {
				p.Extra = append(p.Extra, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", base, err)
		}
	}
	if !found {
		return nil, fmt.Errorf("no uzbek/ or russian/ directory under %s", root)
	}

	out := make([]Pair, 0, len(pairs))
	for _, p := range pairs {
		sort.Strings(p.Extra)
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Subject != out[j].Subject {
			return out[i].Subject < out[j].Subject
		}
		return out[i].Grade < out[j].Grade
	})
	return out, nil
}
