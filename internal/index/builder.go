package index

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/models"
	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/tokenizer"
)

// ErrUnknownZone is returned when a zoned build encounters a zone outside the
// configured closed set. The whole build fails; skipping the zone would leave
// the zone-sum invariant silently broken.
var ErrUnknownZone = errors.New("unknown zone")

// DefaultChampionSize bounds champion lists unless configured otherwise.
const DefaultChampionSize = 100

// Options configures index construction.
type Options struct {
	// Zoned selects per-zone frequency tracking.
	Zoned bool
	// Zones is the closed set of recognized zone names for zoned builds.
	// Defaults to models.DefaultZones.
	Zones []models.Zone
	// ChampionSize bounds per-term champion lists; 0 disables them.
	ChampionSize int
}

// Builder constructs inverted indexes from documents.
type Builder struct {
	analyzer *tokenizer.Analyzer
	opts     Options
	logger   *zap.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets a logger for build progress output.
func WithLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// NewBuilder creates a builder using the given analyzer. The analyzer's
// options are recorded in the built index so queries normalize identically.
func NewBuilder(analyzer *tokenizer.Analyzer, opts Options, bopts ...BuilderOption) *Builder {
	if opts.Zoned && len(opts.Zones) == 0 {
		opts.Zones = models.DefaultZones
	}
	b := &Builder{analyzer: analyzer, opts: opts}
	for _, o := range bopts {
		o(b)
	}
	return b
}

// Build constructs the index for docs. Documents may arrive in any order;
// the result is identical for a given corpus. A document that normalizes to
// zero terms still receives a Docs entry (zero norms, no postings).
func (b *Builder) Build(docs []models.Document) (*Index, error) {
	ix := &Index{
		Zoned:        b.opts.Zoned,
		Analyzer:     b.analyzer.Options(),
		ChampionSize: b.opts.ChampionSize,
		Terms:        make(map[string]*PostingList),
		Docs:         make(map[string]*DocStats),
	}
	if b.opts.Zoned {
		ix.Zones = b.opts.Zones
	}

	for i := range docs {
		doc := &docs[i]
		if _, dup := ix.Docs[doc.ID]; dup {
			return nil, fmt.Errorf("duplicate document id %q (source %s)", doc.ID, doc.Source)
		}
		if err := b.addDocument(ix, doc); err != nil {
			return nil, err
		}
		if b.logger != nil && (i+1)%1000 == 0 {
			b.logger.Debug("indexing progress", zap.Int("documents", i+1))
		}
	}

	for _, pl := range ix.Terms {
		sort.Slice(pl.Postings, func(i, j int) bool {
			return pl.Postings[i].DocID < pl.Postings[j].DocID
		})
	}
	b.computeNorms(ix)
	if b.opts.ChampionSize > 0 {
		ix.Champions = buildChampions(ix, b.opts.ChampionSize)
	}

	if b.logger != nil {
		b.logger.Info("index built",
			zap.Int("documents", ix.DocCount()),
			zap.Int("vocabulary", ix.VocabSize()),
			zap.Bool("zoned", ix.Zoned),
		)
	}
	return ix, nil
}

func (b *Builder) addDocument(ix *Index, doc *models.Document) error {
	stats := &DocStats{Name: doc.Name}
	ix.Docs[doc.ID] = stats

	if !ix.Zoned {
		// Flat indexing covers the body text only; the title stays display
		// metadata unless zoned indexing is selected.
		for term, n := range b.analyzer.Counts(doc.Text()) {
			pl := ix.Terms[term]
			if pl == nil {
				pl = &PostingList{}
				ix.Terms[term] = pl
			}
			pl.Postings = append(pl.Postings, Posting{DocID: doc.ID, TF: uint32(n)})
		}
		return nil
	}

	perTerm := make(map[string]map[models.Zone]uint32)
	for zone, text := range doc.Zones {
		if !ix.HasZone(zone) {
			return fmt.Errorf("document %q (source %s): zone %q: %w", doc.ID, doc.Source, zone, ErrUnknownZone)
		}
		for term, n := range b.analyzer.Counts(text) {
			zc := perTerm[term]
			if zc == nil {
				zc = make(map[models.Zone]uint32)
				perTerm[term] = zc
			}
			zc[zone] += uint32(n)
		}
	}
	for term, zc := range perTerm {
		pl := ix.Terms[term]
		if pl == nil {
			pl = &PostingList{ZoneDF: make(map[models.Zone]uint32)}
			ix.Terms[term] = pl
		}
		var total uint32
		for zone, ztf := range zc {
			total += ztf
			pl.ZoneDF[zone]++
		}
		pl.Postings = append(pl.Postings, Posting{DocID: doc.ID, TF: total, ZoneTF: zc})
	}
	return nil
}

// computeNorms derives each document's normalization factors from the
// postings alone. The overall norm uses total frequencies; zoned indexes
// additionally get one norm per zone.
func (b *Builder) computeNorms(ix *Index) {
	type acc struct {
		overall float64
		zones   map[models.Zone]float64
	}
	sums := make(map[string]*acc, len(ix.Docs))
	for id := range ix.Docs {
		a := &acc{}
		if ix.Zoned {
			a.zones = make(map[models.Zone]float64, len(ix.Zones))
		}
		sums[id] = a
	}
	for _, pl := range ix.Terms {
		for _, p := range pl.Postings {
			a := sums[p.DocID]
			w := TermWeight(p.TF)
			a.overall += w * w
			for zone, ztf := range p.ZoneTF {
				zw := TermWeight(ztf)
				a.zones[zone] += zw * zw
			}
		}
	}
	for id, a := range sums {
		stats := ix.Docs[id]
		stats.Norm = math.Sqrt(a.overall)
		if ix.Zoned {
			stats.ZoneNorms = make(map[models.Zone]float64, len(ix.Zones))
			for _, zone := range ix.Zones {
				stats.ZoneNorms[zone] = math.Sqrt(a.zones[zone])
			}
		}
	}
}

// buildChampions selects, per term, the ids of the size highest-frequency
// documents (body frequency for zoned indexes, total otherwise). Ties break
// by document id ascending; the result list keeps canonical id order so
// champion-restricted scoring stays deterministic.
func buildChampions(ix *Index, size int) map[string][]string {
	champions := make(map[string][]string, len(ix.Terms))
	for term, pl := range ix.Terms {
		type cand struct {
			id string
			tf uint32
		}
		cands := make([]cand, 0, len(pl.Postings))
		for _, p := range pl.Postings {
			tf := p.TF
			if ix.Zoned {
				tf = p.ZoneTF[models.ZoneBody]
			}
			if tf == 0 {
				continue
			}
			cands = append(cands, cand{id: p.DocID, tf: tf})
		}
		if len(cands) == 0 {
			continue
		}
		sort.Slice(cands, func(i, j int) bool {
			if cands[i].tf != cands[j].tf {
				return cands[i].tf > cands[j].tf
			}
			return cands[i].id < cands[j].id
		})
		if len(cands) > size {
			cands = cands[:size]
		}
		ids := make([]string, len(cands))
		for i, c := range cands {
			ids[i] = c.id
		}
		sort.Strings(ids)
		champions[term] = ids
	}
	if len(champions) == 0 {
		return nil
	}
	return champions
}
