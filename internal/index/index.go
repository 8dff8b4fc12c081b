// Package index implements the inverted index and its construction.
//
// A term maps to a postings list ordered by document id ascending, so a given
// corpus always produces the same index regardless of ingestion order.
// Document norms are derived from the index's own postings using logarithmic
// term weighting (1 + log10(tf)) and are the denominators of cosine scoring.
package index

import (
	"fmt"
	"math"
	"sort"

	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/models"
	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/tokenizer"
)

// Posting links a term to one document containing it.
type Posting struct {
	DocID string
	// TF is the term's total frequency within the document.
	TF uint32
	// ZoneTF breaks TF down by zone. Nil in flat indexes. The per-zone
	// frequencies always sum to TF.
	ZoneTF map[models.Zone]uint32
}

// PostingList holds all postings of one term, ordered by document id ascending.
type PostingList struct {
	Postings []Posting
	// ZoneDF counts, per zone, the documents whose zone contains the term.
	// Nil in flat indexes.
	ZoneDF map[models.Zone]uint32
}

// DF returns the term's document frequency. It is by construction equal to
// the postings list length.
func (pl *PostingList) DF() int {
	return len(pl.Postings)
}

// DocStats carries per-document statistics needed at scoring time.
type DocStats struct {
	Name string
	// Norm is the Euclidean norm of the document's log-weighted term vector.
	Norm float64
	// ZoneNorms holds the per-zone norms. Nil in flat indexes.
	ZoneNorms map[models.Zone]float64
}

// Index is an immutable inverted index over a corpus. Build it with a
// Builder or load it with the storage package; concurrent readers need no
// locking afterwards.
type Index struct {
	// Zoned reports whether postings carry per-zone frequencies.
	Zoned bool
	// Zones is the closed zone set in canonical order. Empty for flat indexes.
	Zones []models.Zone
	// Analyzer records the tokenizer options used at build time. Queries
	// must be normalized with the same options.
	Analyzer tokenizer.Options
	// ChampionSize is the champion list bound used at build time (0 = none).
	ChampionSize int

	Terms     map[string]*PostingList
	Docs      map[string]*DocStats
	// Champions maps a term to the ids of its highest-frequency documents
	// (body frequency in zoned indexes), bounded by ChampionSize.
	Champions map[string][]string
}

// DocCount returns the number of documents in the corpus.
func (ix *Index) DocCount() int {
	return len(ix.Docs)
}

// VocabSize returns the number of distinct terms.
func (ix *Index) VocabSize() int {
	return len(ix.Terms)
}

// Vocabulary returns the corpus term set.
func (ix *Index) Vocabulary() map[string]struct{} {
	vocab := make(map[string]struct{}, len(ix.Terms))
	for term := range ix.Terms {
		vocab[term] = struct{}{}
	}
	return vocab
}

// SortedTerms returns all terms in lexicographic order.
func (ix *Index) SortedTerms() []string {
	terms := make([]string, 0, len(ix.Terms))
	for term := range ix.Terms {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// HasZone reports whether z belongs to the index's closed zone set.
func (ix *Index) HasZone(z models.Zone) bool {
	for _, zone := range ix.Zones {
		if zone == z {
			return true
		}
	}
	return false
}

// TermWeight is the logarithmic term-frequency weight: 1 + log10(tf).
// Zero frequency contributes zero weight.
func TermWeight(tf uint32) float64 {
	if tf == 0 {
		return 0
	}
	return 1 + math.Log10(float64(tf))
}

// IDF is the inverse document frequency weight: log10(N/df). A term present
// in every document weighs zero; a term in exactly one document weighs most.
func IDF(docCount, df int) float64 {
	if df == 0 || docCount == 0 {
		return 0
	}
	return math.Log10(float64(docCount) / float64(df))
}

// Validate checks the index's structural invariants: canonical postings
// order, document frequency consistency, zone frequency sums, and that every
// posting references a known document. Used after deserialization.
func (ix *Index) Validate() error {
	for term, pl := range ix.Terms {
		prev := ""
		zoneDocs := make(map[models.Zone]uint32)
		for i, p := range pl.Postings {
			if i > 0 && p.DocID <= prev {
				return fmt.Errorf("term %q: postings not in canonical order at doc %q", term, p.DocID)
			}
			prev = p.DocID
			if _, ok := ix.Docs[p.DocID]; !ok {
				return fmt.Errorf("term %q: posting references unknown document %q", term, p.DocID)
			}
			if p.TF == 0 {
				return fmt.Errorf("term %q: zero frequency posting for document %q", term, p.DocID)
			}
			if ix.Zoned {
				var sum uint32
				for zone, ztf := range p.ZoneTF {
					if !ix.HasZone(zone) {
						return fmt.Errorf("term %q: posting for document %q has unknown zone %q", term, p.DocID, zone)
					}
					sum += ztf
					if ztf > 0 {
						zoneDocs[zone]++
					}
				}
				if sum != p.TF {
					return fmt.Errorf("term %q: zone frequencies sum to %d, want %d for document %q", term, sum, p.TF, p.DocID)
				}
			}
		}
		if ix.Zoned {
			for zone, df := range pl.ZoneDF {
				if zoneDocs[zone] != df {
					return fmt.Errorf("term %q: zone %q document frequency is %d, postings say %d", term, zone, df, zoneDocs[zone])
				}
			}
		}
	}
	return nil
}
