// Package segment turns a paginated document into an ordered list of
// chapter candidates.
//
// Three strategies are tried in order: the document's embedded outline, a
// font and pattern scan of page headings, and uniform division by page
// count. The first strategy whose result is sufficient wins; results are
// never blended.
package segment

// ShortDocumentPages is the page count under which a document is treated
// as a single chapter.
const ShortDocumentPages = 20

// Config tunes the cascade.
type Config struct {
	// SampleSize is the number of leading pages the font profile reads.
	SampleSize int
	// HeadingFactor multiplies the body font size into the heading threshold.
	HeadingFactor float64
	// TopLines is how many lines from the top of a page may hold a heading.
	TopLines int
	// MinGap is the minimum page distance between two accepted headings.
	MinGap int
	// MinOutlineEntries is the outline size below which it is ignored.
	MinOutlineEntries int
	// MaxOutlineLevel drops deeper outline entries.
	MaxOutlineLevel int
	// Strict selects the stricter heading classifier.
	Strict bool
}

// DefaultConfig returns the cascade defaults.
func DefaultConfig() Config {
	return Config{
		SampleSize:        30,
		HeadingFactor:     1.15,
		TopLines:          10,
		MinGap:            2,
		MinOutlineEntries: 3,
		MaxOutlineLevel:   2,
	}
}

// StrictConfig trades recall for precision on noisy scans.
func StrictConfig() Config {
	cfg := DefaultConfig()
	cfg.TopLines = 8
	cfg.MinGap = 3
	cfg.Strict = true
	return cfg
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SampleSize <= 0 {
		c.SampleSize = d.SampleSize
	}
	if c.HeadingFactor <= 0 {
		c.HeadingFactor = d.HeadingFactor
	}
	if c.TopLines <= 0 {
		c.TopLines = d.TopLines
	}
	if c.MinGap <= 0 {
		c.MinGap = d.MinGap
	}
	if c.MinOutlineEntries <= 0 {
		c.MinOutlineEntries = d.MinOutlineEntries
	}
	if c.MaxOutlineLevel <= 0 {
		c.MaxOutlineLevel = d.MaxOutlineLevel
	}
	return c
}
