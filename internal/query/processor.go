// Package query evaluates free-text queries against a built index.
//
// Each query runs the pipeline Tokenize -> Expand (optional) -> Score ->
// Rank. Scoring uses the vector-space model with logarithmic tf-idf
// weighting: a query term weighs (1 + log10(tf)) * log10(N/df), a document
// term weighs (1 + log10(tf)) / norm, and a document's score is the cosine
// similarity between the two weight vectors. Only documents sharing at least
// one query term are ever scored.
package query

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/embedding"
	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/index"
	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/models"
	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/tokenizer"
)

// DefaultExpansionK is the neighbor count per original query term.
const DefaultExpansionK = 7

// DefaultZoneWeights favor title matches over body matches.
var DefaultZoneWeights = map[models.Zone]float64{
	models.ZoneTitle: 0.7,
	models.ZoneBody:  0.3,
}

// overallZone marks scoring against total frequencies rather than one zone.
const overallZone models.Zone = ""

// Options is the closed query-time configuration, validated once when the
// processor is created.
type Options struct {
	// ScoreTitle enables zone-weighted scoring; requires a zoned index.
	ScoreTitle bool
	// ExpandQuery enables embedding-based expansion; requires a table.
	ExpandQuery bool
	// ExpansionK is the neighbor count per original term (default 7).
	ExpansionK int
	// ZoneWeights combine per-zone scores when ScoreTitle is set.
	// Defaults to DefaultZoneWeights.
	ZoneWeights map[models.Zone]float64
	// Limit truncates ranked results (default 10, <=0 uses the default).
	Limit int
}

// Processor evaluates queries against an immutable index. Safe for
// concurrent use: the index and embedding table are read-only after load.
type Processor struct {
	ix       *index.Index
	emb      *embedding.Table
	analyzer *tokenizer.Analyzer
	opts     Options
	logger   *zap.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithLogger sets a logger for per-query debug output.
func WithLogger(l *zap.Logger) ProcessorOption {
	return func(p *Processor) { p.logger = l }
}

// NewProcessor validates opts against the index and embedding table and
// returns a processor whose analyzer matches the one the index was built
// with. emb may be nil when expansion is disabled.
func NewProcessor(ix *index.Index, emb *embedding.Table, opts Options, popts ...ProcessorOption) (*Processor, error) {
	if ix == nil {
		return nil, fmt.Errorf("nil index")
	}
	if opts.ScoreTitle && !ix.Zoned {
		return nil, fmt.Errorf("zone-weighted scoring requires a zoned index")
	}
	if opts.ExpandQuery && emb == nil {
		return nil, fmt.Errorf("query expansion requires an embedding table")
	}
	if opts.ExpansionK <= 0 {
		opts.ExpansionK = DefaultExpansionK
	}
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	if opts.ScoreTitle {
		if opts.ZoneWeights == nil {
			opts.ZoneWeights = DefaultZoneWeights
		}
		for zone, w := range opts.ZoneWeights {
			if !ix.HasZone(zone) {
				return nil, fmt.Errorf("zone weight for unknown zone %q", zone)
			}
			if w < 0 {
				return nil, fmt.Errorf("zone %q: negative weight %v", zone, w)
			}
		}
	}
	analyzer, err := tokenizer.NewAnalyzer(ix.Analyzer)
	if err != nil {
		return nil, fmt.Errorf("rebuild analyzer: %w", err)
	}
	p := &Processor{ix: ix, emb: emb, analyzer: analyzer, opts: opts}
	for _, o := range popts {
		o(p)
	}
	return p, nil
}

// Evaluate runs the query pipeline and returns ranked results. A query that
// normalizes to zero terms returns an empty result set, not an error.
func (p *Processor) Evaluate(rawQuery string) (*models.QueryResponse, error) {
	start := time.Now()
	resp := &models.QueryResponse{Query: rawQuery, Results: []*models.ScoredDoc{}}

	terms := p.analyzer.Tokenize(rawQuery)
	if len(terms) == 0 {
		resp.QueryTime = time.Since(start).Milliseconds()
		return resp, nil
	}

	queryVec := make(map[string]float64, len(terms))
	for _, t := range terms {
		queryVec[t]++
	}
	if p.opts.ExpandQuery {
		resp.Expanded = p.expand(queryVec)
	}

	var scores map[string]float64
	if p.opts.ScoreTitle {
		scores = p.mergeZoneScores(queryVec)
	} else {
		scores = p.score(queryVec, overallZone)
	}

	resp.Total = len(scores)
	resp.Results = p.rank(scores)
	resp.QueryTime = time.Since(start).Milliseconds()

	if p.logger != nil {
		p.logger.Debug("query evaluated",
			zap.String("query", rawQuery),
			zap.Int("terms", len(queryVec)),
			zap.Int("candidates", resp.Total),
			zap.Int64("ms", resp.QueryTime),
		)
	}
	return resp, nil
}

// expand adds each original term's nearest neighbors to the query vector,
// weighted by similarity times the original term's value. Since cosine
// similarity is below 1, an expansion term never outweighs the original term
// that produced it. Negative-similarity contributions are clamped to zero.
// Returns the added terms sorted for deterministic output.
func (p *Processor) expand(queryVec map[string]float64) []string {
	originals := make(map[string]float64, len(queryVec))
	for term, v := range queryVec {
		originals[term] = v
	}
	for term, v := range originals {
		for _, n := range p.emb.NearestNeighbors(term, p.opts.ExpansionK) {
			queryVec[n.Term] += n.Similarity * v
		}
	}
	var added []string
	for term, v := range queryVec {
		if v < 0 {
			queryVec[term] = 0
		}
		if _, orig := originals[term]; !orig {
			added = append(added, term)
		}
	}
	sort.Strings(added)
	return added
}

// score computes cosine scores for all candidate documents against one zone
// (or total frequencies when zone is overallZone). Index elimination: only
// the postings of query terms are touched. Champion lists, when present,
// bound the body-zone candidates of each term.
func (p *Processor) score(queryVec map[string]float64, zone models.Zone) map[string]float64 {
	docCount := p.ix.DocCount()
	scores := make(map[string]float64)
	var queryNorm float64

	for term, qtf := range queryVec {
		if qtf <= 0 {
			continue
		}
		pl := p.ix.Terms[term]
		var df int
		if pl != nil {
			if zone == overallZone {
				df = pl.DF()
			} else {
				df = int(pl.ZoneDF[zone])
			}
		}
		if df == 0 {
			continue
		}
		qw := queryWeight(qtf, docCount, df)
		if qw <= 0 {
			continue
		}
		queryNorm += qw * qw

		champions := p.championSet(term, zone)
		for _, post := range pl.Postings {
			tf := post.TF
			if zone != overallZone {
				tf = post.ZoneTF[zone]
			}
			if tf == 0 {
				continue
			}
			if champions != nil && !champions[post.DocID] {
				continue
			}
			norm := p.docNorm(post.DocID, zone)
			if norm == 0 {
				continue
			}
			scores[post.DocID] += qw * index.TermWeight(tf) / norm
		}
	}

	if queryNorm > 0 {
		queryNorm = math.Sqrt(queryNorm)
		for id := range scores {
			scores[id] /= queryNorm
		}
	}
	return scores
}

// championSet returns the champion doc-id set for term, or nil when champion
// restriction does not apply. Champions bound only body-side scoring; the
// title zone is small enough to score in full.
func (p *Processor) championSet(term string, zone models.Zone) map[string]bool {
	if p.ix.Champions == nil {
		return nil
	}
	if zone != overallZone && zone != models.ZoneBody {
		return nil
	}
	ids, ok := p.ix.Champions[term]
	if !ok {
		return nil
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func (p *Processor) docNorm(docID string, zone models.Zone) float64 {
	stats := p.ix.Docs[docID]
	if stats == nil {
		return 0
	}
	if zone == overallZone {
		return stats.Norm
	}
	return stats.ZoneNorms[zone]
}

// mergeZoneScores computes each zone's cosine scores independently and
// combines them with the configured zone weights.
func (p *Processor) mergeZoneScores(queryVec map[string]float64) map[string]float64 {
	merged := make(map[string]float64)
	for _, zone := range p.ix.Zones {
		w := p.opts.ZoneWeights[zone]
		if w == 0 {
			continue
		}
		for id, s := range p.score(queryVec, zone) {
			merged[id] += w * s
		}
	}
	return merged
}

// queryWeight is the query-side tf-idf weight. Expansion can make the
// query-side frequency fractional; the log-weighted part is floored at zero
// so a faint expansion term cannot contribute a negative weight.
func queryWeight(qtf float64, docCount, df int) float64 {
	wf := 1 + math.Log10(qtf)
	if wf < 0 {
		wf = 0
	}
	return wf * index.IDF(docCount, df)
}

// rank orders candidates by score descending, ties broken by document id
// ascending, and truncates to the configured limit.
func (p *Processor) rank(scores map[string]float64) []*models.ScoredDoc {
	ranked := make([]*models.ScoredDoc, 0, len(scores))
	for id, s := range scores {
		ranked = append(ranked, &models.ScoredDoc{DocID: id, Score: s})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].DocID < ranked[j].DocID
	})
	if len(ranked) > p.opts.Limit {
		ranked = ranked[:p.opts.Limit]
	}
	for i, r := range ranked {
		r.Rank = i + 1
		if stats := p.ix.Docs[r.DocID]; stats != nil {
			r.Name = stats.Name
		}
	}
	return ranked
}
