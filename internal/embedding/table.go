// Package embedding holds the pretrained term-vector table and its
// nearest-neighbor lookup used for query expansion.
package embedding

import (
	"fmt"
	"math"
	"sort"
)

// Table maps terms to fixed-length vectors. Immutable once built; concurrent
// readers need no locking.
type Table struct {
	dim     int
	vectors map[string][]float32
	norms   map[string]float64
}

// Neighbor is one nearest-neighbor hit.
type Neighbor struct {
	Term       string
	Similarity float64
}

// NewTable creates an empty table for vectors of the given dimension.
func NewTable(dim int) (*Table, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dim)
	}
	return &Table{
		dim:     dim,
		vectors: make(map[string][]float32),
		norms:   make(map[string]float64),
	}, nil
}

// Add stores a copy of vec under term. Re-adding a term replaces its vector.
func (t *Table) Add(term string, vec []float32) error {
	if len(vec) != t.dim {
		return fmt.Errorf("term %q: vector dimension mismatch: got %d, expected %d", term, len(vec), t.dim)
	}
	v := make([]float32, t.dim)
	copy(v, vec)
	t.vectors[term] = v
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	t.norms[term] = math.Sqrt(sum)
	return nil
}

// Dim returns the vector dimension.
func (t *Table) Dim() int {
	return t.dim
}

// Len returns the number of terms in the table.
func (t *Table) Len() int {
	return len(t.vectors)
}

// Vector returns the vector stored for term.
func (t *Table) Vector(term string) ([]float32, bool) {
	v, ok := t.vectors[term]
	return v, ok
}

// Terms returns all terms in lexicographic order.
func (t *Table) Terms() []string {
	terms := make([]string, 0, len(t.vectors))
	for term := range t.vectors {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// Trim returns a new table holding exactly the intersection of the table's
// terms and vocab, each vector unchanged. The receiver is not modified, so
// the caller can drop the full table after trimming.
func (t *Table) Trim(vocab map[string]struct{}) *Table {
	trimmed := &Table{
		dim:     t.dim,
		vectors: make(map[string][]float32),
		norms:   make(map[string]float64),
	}
	for term := range vocab {
		if v, ok := t.vectors[term]; ok {
			trimmed.vectors[term] = v
			trimmed.norms[term] = t.norms[term]
		}
	}
	return trimmed
}

// NearestNeighbors returns the k terms most cosine-similar to term's vector,
// excluding term itself, ordered by similarity descending with ties broken
// by lexicographic term order. An absent term yields an empty result, so
// expansion simply contributes nothing for unknown terms.
func (t *Table) NearestNeighbors(term string, k int) []Neighbor {
	qv, ok := t.vectors[term]
	if !ok || k <= 0 {
		return nil
	}
	qnorm := t.norms[term]
	if qnorm == 0 {
		return nil
	}
	cands := make([]Neighbor, 0, len(t.vectors)-1)
	for other, vec := range t.vectors {
		if other == term {
			continue
		}
		onorm := t.norms[other]
		if onorm == 0 {
			continue
		}
		var dot float64
		for i := range qv {
			dot += float64(qv[i]) * float64(vec[i])
		}
		cands = append(cands, Neighbor{Term: other, Similarity: dot / (qnorm * onorm)})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].Similarity != cands[j].Similarity {
			return cands[i].Similarity > cands[j].Similarity
		}
		return cands[i].Term < cands[j].Term
	})
	if k > len(cands) {
		k = len(cands)
	}
	return cands[:k]
}
