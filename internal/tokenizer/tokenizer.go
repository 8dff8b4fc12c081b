// Package tokenizer normalizes raw text into index terms.
//
// The same Analyzer instance (or one built from identical Options) must be
// used for both index construction and query processing; the builder records
// its analyzer options in the persisted index so the query phase can
// reconstruct an identical pipeline.
package tokenizer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	porterstemmer "github.com/blevesearch/go-porterstemmer"
)

// Options selects the normalization steps applied after case folding.
type Options struct {
	// StopWords drops terms found in the English stop-word list.
	StopWords bool
	// Stemming reduces terms to their Porter stem.
	Stemming bool
}

// Analyzer turns raw text into a deterministic sequence of normalized terms.
type Analyzer struct {
	stop analysis.TokenMap
	opts Options
}

// NewAnalyzer builds an analyzer for the given options.
func NewAnalyzer(opts Options) (*Analyzer, error) {
	a := &Analyzer{opts: opts}
	if opts.StopWords {
		tm := analysis.NewTokenMap()
		if err := tm.LoadBytes(en.EnglishStopWords); err != nil {
			return nil, fmt.Errorf("load stop words: %w", err)
		}
		a.stop = tm
	}
	return a, nil
}

// Options returns the options the analyzer was built with.
func (a *Analyzer) Options() Options {
	return a.opts
}

// isJoiner reports whether r glues two words together (hyphen family,
// underscore). Joined words are split into separate terms.
func isJoiner(r rune) bool {
	switch r {
	case '-', '_', '‐', '–', '—':
		return true
	}
	return false
}

// Tokenize returns the normalized terms of text in order of appearance.
// Empty or whitespace-only input yields an empty (non-nil) slice.
func (a *Analyzer) Tokenize(text string) []string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case isJoiner(r):
			b.WriteByte(' ')
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteRune(r)
		}
		// Remaining punctuation is dropped without splitting: "don't" -> "dont".
	}
	fields := strings.Fields(b.String())
	terms := make([]string, 0, len(fields))
	for _, tok := range fields {
		if a.stop != nil && a.stop[tok] {
			continue
		}
		if a.opts.Stemming {
			tok = porterstemmer.StemString(tok)
		}
		if tok == "" {
			continue
		}
		terms = append(terms, tok)
	}
	return terms
}

// Counts tokenizes text and returns term frequencies.
func (a *Analyzer) Counts(text string) map[string]int {
	counts := make(map[string]int)
	for _, term := range a.Tokenize(text) {
		counts[term]++
	}
	return counts
}
